package appointment

import (
	"time"

	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// StateChange carries the before/after snapshot of a transition so
// callers can audit it without any shared prior-state bookkeeping.
type StateChange struct {
	AppointmentID uint   `json:"appointment_id"`
	From          Status `json:"from"`
	To            Status `json:"to"`
}

func Confirm(ap *models.Appointment) (StateChange, error) {
	from := Status(ap.Status)
	if err := CanConfirm(from); err != nil {
		return StateChange{}, err
	}

	ap.Status = string(StatusConfirmed)
	return StateChange{AppointmentID: ap.ID, From: from, To: StatusConfirmed}, nil
}

func Start(ap *models.Appointment) (StateChange, error) {
	from := Status(ap.Status)
	if err := CanStart(from); err != nil {
		return StateChange{}, err
	}

	ap.Status = string(StatusInProgress)
	return StateChange{AppointmentID: ap.ID, From: from, To: StatusInProgress}, nil
}

func Cancel(ap *models.Appointment, now time.Time) (StateChange, error) {
	from := Status(ap.Status)
	if err := CanCancel(from); err != nil {
		return StateChange{}, err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return StateChange{AppointmentID: ap.ID, From: from, To: StatusCancelled}, nil
}

func Complete(ap *models.Appointment, now time.Time) (StateChange, error) {
	from := Status(ap.Status)
	if err := CanComplete(from); err != nil {
		return StateChange{}, err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return StateChange{AppointmentID: ap.ID, From: from, To: StatusCompleted}, nil
}

// SendOffer moves a confirmed appointment into offer_sent while a
// reassignment offer against it is pending.
func SendOffer(ap *models.Appointment) (StateChange, error) {
	from := Status(ap.Status)
	if err := CanSendOffer(from); err != nil {
		return StateChange{}, err
	}

	ap.Status = string(StatusOfferSent)
	return StateChange{AppointmentID: ap.ID, From: from, To: StatusOfferSent}, nil
}

func MarkNoShow(ap *models.Appointment) (StateChange, error) {
	from := Status(ap.Status)
	if err := CanMarkNoShow(from); err != nil {
		return StateChange{}, err
	}

	ap.Status = string(StatusNoShow)
	return StateChange{AppointmentID: ap.ID, From: from, To: StatusNoShow}, nil
}
