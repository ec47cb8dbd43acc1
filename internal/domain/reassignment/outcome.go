package reassignment

// ===============================
// Offer Outcome
// ===============================

// Outcome is the terminal resolution of one offer. It is written to a
// ReassignmentLog exactly once; a log with a nil outcome is pending.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeExpired  Outcome = "expired"
)

// Resolution guard failure codes, surfaced as httperr business errors.
const (
	CodeOfferNotFound        = "offer_not_found"
	CodeInvalidAction        = "invalid_action"
	CodeSlotUnavailable      = "slot_unavailable"
	CodeCandidateUnavailable = "candidate_unavailable"
)

// FinalPrice computes the price charged to the candidate client when
// they accept the freed slot: the service price minus the offer
// discount minus whatever deposit they already paid, floored at zero.
func FinalPrice(servicePrice, discount, depositPaid float64) float64 {
	p := servicePrice - discount - depositPaid
	if p < 0 {
		return 0
	}
	return p
}
