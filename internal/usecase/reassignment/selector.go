package reassignment

import (
	"context"

	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
)

// CandidateSelector finds the best replacement for a cancelled slot:
// the furthest-future booking of the same service. Offering the client
// who waits the longest maximizes the value of the discount while
// leaving near-term appointments undisturbed.
type CandidateSelector struct {
	repo domain.Repository
}

func NewCandidateSelector(repo domain.Repository) *CandidateSelector {
	return &CandidateSelector{repo: repo}
}

// Select returns the confirmed appointment for the same service
// scheduled strictly later than the cancelled one, furthest in the
// future (ties break on the lowest id). Nil when none exists.
func (s *CandidateSelector) Select(
	ctx context.Context,
	cancelled *models.Appointment,
) (*models.Appointment, error) {

	return s.repo.FindFurthestCandidate(
		ctx,
		cancelled.ServiceID,
		cancelled.StartTime,
		[]string{string(domain.StatusConfirmed)},
	)
}

// SelectRoomFill is the looser variant used by room-fill services: it
// also considers pending bookings.
func (s *CandidateSelector) SelectRoomFill(
	ctx context.Context,
	cancelled *models.Appointment,
) (*models.Appointment, error) {

	return s.repo.FindFurthestCandidate(
		ctx,
		cancelled.ServiceID,
		cancelled.StartTime,
		[]string{
			string(domain.StatusPending),
			string(domain.StatusConfirmed),
		},
	)
}
