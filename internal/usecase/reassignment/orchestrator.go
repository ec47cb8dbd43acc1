package reassignment

import (
	"context"

	"github.com/BeautifulStudio01/salon-scheduler/internal/audit"
	apdomain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/reassignment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/notification"
	"github.com/BeautifulStudio01/salon-scheduler/internal/timezone"
)

// Tag summarizes what the orchestrator did with a cancellation.
type Tag string

const (
	TagNotCancelled     Tag = "not_cancelled"
	TagInPast           Tag = "in_past"
	TagSlotTaken        Tag = "slot_taken"
	TagOfferPending     Tag = "offer_pending"
	TagNoCandidates     Tag = "no_candidates"
	TagOfferSent        Tag = "offer_sent"
	TagEmailFailed      Tag = "email_failed"
	TagRoomFillNotified Tag = "room_fill_notified"
)

// Orchestrator reacts to an appointment cancellation: it guards
// eligibility, picks a candidate and runs either the formal offer
// cycle or the loose room-fill notification. Rejection and expiry
// re-enter OnAppointmentCancelled for the same cancellation, walking
// toward nearer-future candidates until one accepts or none remain.
type Orchestrator struct {
	appts    apdomain.Repository
	logs     domain.Repository
	selector *CandidateSelector
	issuer   *OfferIssuer
	resolver *OfferResolver
	mailer   notification.Mailer
	audit    *audit.Dispatcher
}

func NewOrchestrator(
	appts apdomain.Repository,
	logs domain.Repository,
	selector *CandidateSelector,
	issuer *OfferIssuer,
	resolver *OfferResolver,
	mailer notification.Mailer,
	auditDispatcher *audit.Dispatcher,
) *Orchestrator {
	return &Orchestrator{
		appts:    appts,
		logs:     logs,
		selector: selector,
		issuer:   issuer,
		resolver: resolver,
		mailer:   mailer,
		audit:    auditDispatcher,
	}
}

func (o *Orchestrator) OnAppointmentCancelled(
	ctx context.Context,
	appointmentID uint,
) (Tag, error) {

	ap, err := o.appts.GetAppointment(ctx, appointmentID)
	if err != nil {
		return "", err
	}

	if ap.Status != string(apdomain.StatusCancelled) {
		return TagNotCancelled, nil
	}

	studio, err := o.appts.GetStudioByID(ctx, ap.StudioID)
	if err != nil {
		return "", err
	}

	// No retroactive reassignment.
	now := timezone.NowIn(studio.Timezone)
	if !ap.StartTime.After(now) {
		return TagInPast, nil
	}

	// Guards against the same cancellation being processed twice.
	free, err := o.appts.IsSlotFree(ctx, ap.ProfessionalID, ap.StartTime, ap.ID)
	if err != nil {
		return "", err
	}
	if !free {
		return TagSlotTaken, nil
	}

	live, err := o.logs.LiveLogForCancelled(ctx, ap.ID)
	if err != nil {
		return "", err
	}
	if live != nil {
		if !now.After(live.ExpiresAt) {
			return TagOfferPending, nil
		}
		// The scheduled expiry never fired. Enforce the deadline on
		// this read, then continue with the next candidate.
		if err := o.resolver.Expire(ctx, live.ID); err != nil {
			return "", err
		}
		live, err = o.logs.LiveLogForCancelled(ctx, ap.ID)
		if err != nil {
			return "", err
		}
		if live != nil {
			return TagOfferPending, nil
		}
	}

	svc, err := o.appts.GetServiceByID(ctx, ap.ServiceID)
	if err != nil {
		return "", err
	}

	if svc.RoomFill {
		return o.roomFill(ctx, studio, svc, ap)
	}

	candidate, err := o.selector.Select(ctx, ap)
	if err != nil {
		return "", err
	}
	if candidate == nil {
		o.audit.Dispatch(audit.Event{
			StudioID: ap.StudioID,
			Action:   "reassignment_no_candidates",
			Entity:   "appointment",
			EntityID: &ap.ID,
		})
		return TagNoCandidates, nil
	}

	result, err := o.issuer.Issue(ctx, ap, candidate)
	if err != nil {
		return "", err
	}

	if result.Status == IssueEmailFailed {
		return TagEmailFailed, nil
	}
	return TagOfferSent, nil
}

// roomFill is the single-shot informational flow for room-fill
// services: no token, no deadline, no accept/reject state machine.
func (o *Orchestrator) roomFill(
	ctx context.Context,
	studio *models.Studio,
	svc *models.Service,
	ap *models.Appointment,
) (Tag, error) {

	candidate, err := o.selector.SelectRoomFill(ctx, ap)
	if err != nil {
		return "", err
	}
	if candidate == nil {
		return TagNoCandidates, nil
	}

	client, err := o.appts.GetClientByID(ctx, candidate.ClientID)
	if err != nil {
		return "", err
	}

	subject, body, err := notification.RenderRoomFillEmail(notification.RoomFillEmailData{
		ClientName:   client.Name,
		StudioName:   studio.Name,
		ServiceName:  svc.Name,
		FreedStart:   ap.StartTime,
		CurrentStart: candidate.StartTime,
		StudioPhone:  studio.Phone,
	})
	if err != nil {
		return "", err
	}

	if err := o.mailer.Send(ctx, client.Email, subject, body); err != nil {
		return TagEmailFailed, nil
	}

	o.audit.Dispatch(audit.Event{
		StudioID: ap.StudioID,
		Action:   "room_fill_notified",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{
			"candidate_appointment_id": candidate.ID,
			"notified_client_id":       candidate.ClientID,
		},
	})

	return TagRoomFillNotified, nil
}
