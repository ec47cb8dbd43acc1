package appointment

import (
	"context"
	"log"

	"github.com/BeautifulStudio01/salon-scheduler/internal/audit"
	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httperr"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/scheduler"
	"github.com/BeautifulStudio01/salon-scheduler/internal/timezone"
)

// CancelAppointment cancels a booking and hands the freed slot to the
// reassignment engine through the job queue. This is the single entry
// point for cancellations; nothing listens to model saves.
type CancelAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	sched scheduler.Scheduler
}

func NewCancelAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	sched scheduler.Scheduler,
) *CancelAppointment {
	return &CancelAppointment{
		repo:  repo,
		audit: audit,
		sched: sched,
	}
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	studioID uint,
	professionalID uint,
	appointmentID uint,
) (*models.Appointment, error) {

	studio, err := uc.repo.GetStudioByID(ctx, studioID)
	if err != nil {
		return nil, err
	}

	ap, err := uc.repo.GetAppointmentForProfessional(ctx, appointmentID, professionalID)
	if err != nil {
		return nil, httperr.ErrBusiness("appointment_not_found")
	}

	now := timezone.NowIn(studio.Timezone)
	change, err := domain.Cancel(ap, now)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	// Fire-and-forget: the cancel response never waits on candidate
	// selection or email delivery.
	if err := uc.sched.Schedule(ctx, scheduler.Job{
		Kind:          scheduler.JobReassign,
		AppointmentID: ap.ID,
	}, now); err != nil {
		log.Println("failed to schedule reassignment:", err)
	}

	uc.audit.Dispatch(audit.Event{
		StudioID: studioID,
		UserID:   &professionalID,
		Action:   "appointment_cancelled",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: change,
	})

	return ap, nil
}
