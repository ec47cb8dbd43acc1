package reassignment

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/BeautifulStudio01/salon-scheduler/internal/audit"
	apdomain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/reassignment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httperr"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/scheduler"
)

type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

type Resolution struct {
	Outcome domain.Outcome `json:"outcome"`
	// AlreadyResolved marks an idempotent replay: the outcome was
	// decided earlier and is returned unchanged.
	AlreadyResolved bool `json:"already_resolved"`
}

// OfferResolver drives a pending offer to its terminal outcome. All
// guards and mutations for one resolution run inside a single database
// transaction holding an exclusive lock on the log row, which
// serializes concurrent accepts and a racing expiry.
type OfferResolver struct {
	logs  domain.Repository
	sched scheduler.Scheduler
	audit *audit.Dispatcher
}

func NewOfferResolver(
	logs domain.Repository,
	sched scheduler.Scheduler,
	auditDispatcher *audit.Dispatcher,
) *OfferResolver {
	return &OfferResolver{
		logs:  logs,
		sched: sched,
		audit: auditDispatcher,
	}
}

// Resolve applies a client's accept/reject response identified by the
// offer token.
func (r *OfferResolver) Resolve(
	ctx context.Context,
	token string,
	action Action,
) (*Resolution, error) {

	if action != ActionAccept && action != ActionReject {
		return nil, httperr.ErrBusiness(domain.CodeInvalidAction)
	}

	var (
		res        *Resolution
		cascadeFor uint
		studioID   uint
		logID      uint
	)

	err := r.logs.InTx(ctx, func(logs domain.Repository, appts apdomain.Repository) error {
		offerLog, err := logs.GetLogByTokenForUpdate(ctx, token)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.ErrBusiness(domain.CodeOfferNotFound)
		}
		if err != nil {
			return err
		}

		studioID = offerLog.StudioID
		logID = offerLog.ID

		if offerLog.Outcome != nil {
			res = &Resolution{
				Outcome:         domain.Outcome(*offerLog.Outcome),
				AlreadyResolved: true,
			}
			return nil
		}

		cancelled, err := appts.GetAppointment(ctx, offerLog.CancelledAppointmentID)
		if err != nil {
			return err
		}

		var candidate *models.Appointment
		if offerLog.OfferedAppointmentID != nil {
			candidate, err = appts.GetAppointment(ctx, *offerLog.OfferedAppointmentID)
			if err != nil {
				return err
			}
		}

		now := time.Now()

		// The deadline is enforced here too: a stale accept or reject
		// arriving after expiry resolves as expired no matter which
		// enforcement path ran first.
		if now.After(offerLog.ExpiresAt) {
			r.expireLocked(ctx, logs, appts, offerLog, candidate)
			cascadeFor = cancelled.ID
			res = &Resolution{Outcome: domain.OutcomeExpired}
			return nil
		}

		switch action {
		case ActionAccept:
			return r.acceptLocked(ctx, logs, appts, offerLog, cancelled, candidate, now, &res)
		case ActionReject:
			r.rejectLocked(ctx, logs, appts, offerLog, candidate)
			cascadeFor = cancelled.ID
			res = &Resolution{Outcome: domain.OutcomeRejected}
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !res.AlreadyResolved {
		r.audit.Dispatch(audit.Event{
			StudioID: studioID,
			Action:   "offer_" + string(res.Outcome),
			Entity:   "reassignment_log",
			EntityID: &logID,
		})
	}

	if cascadeFor != 0 {
		r.cascade(ctx, cascadeFor)
	}

	return res, nil
}

// Expire is the scheduled enforcement of the offer deadline. It is a
// no-op when the offer was resolved first, and re-schedules itself if
// it somehow fires early.
func (r *OfferResolver) Expire(ctx context.Context, logID uint) error {
	var (
		cascadeFor uint
		reschedule time.Time
		studioID   uint
	)

	err := r.logs.InTx(ctx, func(logs domain.Repository, appts apdomain.Repository) error {
		offerLog, err := logs.GetLogByIDForUpdate(ctx, logID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if offerLog.Outcome != nil {
			return nil
		}

		now := time.Now()
		if now.Before(offerLog.ExpiresAt) {
			reschedule = offerLog.ExpiresAt
			return nil
		}

		var candidate *models.Appointment
		if offerLog.OfferedAppointmentID != nil {
			candidate, err = appts.GetAppointment(ctx, *offerLog.OfferedAppointmentID)
			if err != nil {
				return err
			}
		}

		r.expireLocked(ctx, logs, appts, offerLog, candidate)
		cascadeFor = offerLog.CancelledAppointmentID
		studioID = offerLog.StudioID
		return nil
	})
	if err != nil {
		return err
	}

	if !reschedule.IsZero() {
		return r.sched.Schedule(ctx, scheduler.Job{
			Kind:  scheduler.JobExpire,
			LogID: logID,
		}, reschedule)
	}

	if cascadeFor != 0 {
		r.audit.Dispatch(audit.Event{
			StudioID: studioID,
			Action:   "offer_expired",
			Entity:   "reassignment_log",
			EntityID: &logID,
		})
		r.cascade(ctx, cascadeFor)
	}

	return nil
}

// --------------------------------------------------
// Locked transitions (run under the row lock)
// --------------------------------------------------

func (r *OfferResolver) acceptLocked(
	ctx context.Context,
	logs domain.Repository,
	appts apdomain.Repository,
	offerLog *models.ReassignmentLog,
	cancelled *models.Appointment,
	candidate *models.Appointment,
	now time.Time,
	res **Resolution,
) error {

	if candidate == nil || candidate.Status != string(apdomain.StatusOfferSent) {
		return httperr.ErrBusiness(domain.CodeCandidateUnavailable)
	}

	free, err := appts.IsSlotFree(ctx, cancelled.ProfessionalID, cancelled.StartTime, cancelled.ID)
	if err != nil {
		return err
	}
	if !free {
		return httperr.ErrBusiness(domain.CodeSlotUnavailable)
	}

	svc, err := appts.GetServiceByID(ctx, cancelled.ServiceID)
	if err != nil {
		return err
	}

	// The candidate "moves into" the freed slot: client, payment data
	// and notes are transplanted onto the cancelled appointment.
	cancelled.ClientID = candidate.ClientID
	cancelled.ClientNotes = candidate.ClientNotes
	cancelled.DepositPaid = candidate.DepositPaid
	cancelled.FinalPrice = domain.FinalPrice(svc.Price, offerLog.Discount, candidate.DepositPaid)
	cancelled.Status = string(apdomain.StatusConfirmed)
	cancelled.CancelledAt = nil
	if err := appts.UpdateAppointment(ctx, cancelled); err != nil {
		return err
	}

	candidate.Status = string(apdomain.StatusCancelled)
	candidate.CancelledAt = &now
	if err := appts.UpdateAppointment(ctx, candidate); err != nil {
		return err
	}

	outcome := string(domain.OutcomeAccepted)
	offerLog.Outcome = &outcome
	if err := logs.UpdateLog(ctx, offerLog); err != nil {
		return err
	}

	*res = &Resolution{Outcome: domain.OutcomeAccepted}
	return nil
}

func (r *OfferResolver) rejectLocked(
	ctx context.Context,
	logs domain.Repository,
	appts apdomain.Repository,
	offerLog *models.ReassignmentLog,
	candidate *models.Appointment,
) {
	if candidate != nil && candidate.Status == string(apdomain.StatusOfferSent) {
		candidate.Status = string(apdomain.StatusConfirmed)
		if err := appts.UpdateAppointment(ctx, candidate); err != nil {
			log.Println("failed to release rejected candidate:", err)
		}
	}

	outcome := string(domain.OutcomeRejected)
	offerLog.Outcome = &outcome
	if err := logs.UpdateLog(ctx, offerLog); err != nil {
		log.Println("failed to store rejected outcome:", err)
	}
}

func (r *OfferResolver) expireLocked(
	ctx context.Context,
	logs domain.Repository,
	appts apdomain.Repository,
	offerLog *models.ReassignmentLog,
	candidate *models.Appointment,
) {
	if candidate != nil && candidate.Status == string(apdomain.StatusOfferSent) {
		candidate.Status = string(apdomain.StatusExpired)
		if err := appts.UpdateAppointment(ctx, candidate); err != nil {
			log.Println("failed to expire candidate:", err)
		}
	}

	outcome := string(domain.OutcomeExpired)
	offerLog.Outcome = &outcome
	if err := logs.UpdateLog(ctx, offerLog); err != nil {
		log.Println("failed to store expired outcome:", err)
	}
}

// cascade restarts candidate selection for the original cancellation
// through the job queue.
func (r *OfferResolver) cascade(ctx context.Context, cancelledAppointmentID uint) {
	err := r.sched.Schedule(ctx, scheduler.Job{
		Kind:          scheduler.JobReassign,
		AppointmentID: cancelledAppointmentID,
	}, time.Now())
	if err != nil {
		log.Println("failed to schedule reassignment cascade:", err)
	}
}
