package reassignment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/BeautifulStudio01/salon-scheduler/internal/audit"
	apdomain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/reassignment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/notification"
	"github.com/BeautifulStudio01/salon-scheduler/internal/scheduler"
	"github.com/BeautifulStudio01/salon-scheduler/internal/timezone"
)

const defaultOfferWaitMinutes = 15

type IssueStatus string

const (
	IssueOfferSent   IssueStatus = "offer_sent"
	IssueEmailFailed IssueStatus = "email_failed"
)

type IssueResult struct {
	Log    *models.ReassignmentLog
	Status IssueStatus
}

// OfferIssuer opens one offer cycle: it creates the log, moves the
// candidate into offer_sent, emails the candidate's client and
// schedules the expiry check.
type OfferIssuer struct {
	appts   apdomain.Repository
	logs    domain.Repository
	mailer  notification.Mailer
	sched   scheduler.Scheduler
	audit   *audit.Dispatcher
	baseURL string
}

func NewOfferIssuer(
	appts apdomain.Repository,
	logs domain.Repository,
	mailer notification.Mailer,
	sched scheduler.Scheduler,
	auditDispatcher *audit.Dispatcher,
	baseURL string,
) *OfferIssuer {
	return &OfferIssuer{
		appts:   appts,
		logs:    logs,
		mailer:  mailer,
		sched:   sched,
		audit:   auditDispatcher,
		baseURL: baseURL,
	}
}

func (i *OfferIssuer) Issue(
	ctx context.Context,
	cancelled *models.Appointment,
	candidate *models.Appointment,
) (*IssueResult, error) {

	studio, err := i.appts.GetStudioByID(ctx, cancelled.StudioID)
	if err != nil {
		return nil, err
	}

	svc, err := i.appts.GetServiceByID(ctx, cancelled.ServiceID)
	if err != nil {
		return nil, err
	}

	client, err := i.appts.GetClientByID(ctx, candidate.ClientID)
	if err != nil {
		return nil, err
	}

	wait := svc.OfferWaitMinutes
	if wait <= 0 {
		wait = defaultOfferWaitMinutes
	}

	now := timezone.NowIn(studio.Timezone)

	offerLog := &models.ReassignmentLog{
		StudioID:               cancelled.StudioID,
		CancelledAppointmentID: cancelled.ID,
		OfferedAppointmentID:   &candidate.ID,
		NotifiedClientID:       candidate.ClientID,
		Discount:               svc.OfferDiscount,
		Token:                  uuid.NewString(),
		IssuedAt:               now,
		ExpiresAt:              now.Add(time.Duration(wait) * time.Minute),
	}

	if err := i.logs.CreateLog(ctx, offerLog); err != nil {
		return nil, err
	}

	if _, err := apdomain.SendOffer(candidate); err != nil {
		return nil, err
	}
	if err := i.appts.UpdateAppointment(ctx, candidate); err != nil {
		return nil, err
	}

	// The discounted price and what is left to pay coincide: the
	// candidate's deposit carries over in full.
	amountDue := domain.FinalPrice(svc.Price, offerLog.Discount, candidate.DepositPaid)

	subject, body, err := notification.RenderOfferEmail(notification.OfferEmailData{
		ClientName:       client.Name,
		StudioName:       studio.Name,
		ServiceName:      svc.Name,
		NewStart:         cancelled.StartTime,
		CurrentStart:     candidate.StartTime,
		FinalPrice:       amountDue,
		Discount:         offerLog.Discount,
		RemainingDeposit: amountDue,
		ConfirmURL:       fmt.Sprintf("%s/api/offers/%s", i.baseURL, offerLog.Token),
		ExpiresAt:        offerLog.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	if err := i.mailer.Send(ctx, client.Email, subject, body); err != nil {
		// The delivery channel is unreachable: release the offer
		// instead of leaving it pending behind an email nobody got.
		return i.rollbackFailedEmail(ctx, offerLog, candidate, err)
	}

	if err := i.sched.Schedule(ctx, scheduler.Job{
		Kind:  scheduler.JobExpire,
		LogID: offerLog.ID,
	}, offerLog.ExpiresAt); err != nil {
		// Lazy expiry on the next read still enforces the deadline.
		log.Println("failed to schedule offer expiry:", err)
	}

	i.audit.Dispatch(audit.Event{
		StudioID: cancelled.StudioID,
		Action:   "offer_issued",
		Entity:   "reassignment_log",
		EntityID: &offerLog.ID,
		Metadata: map[string]any{
			"cancelled_appointment_id": cancelled.ID,
			"offered_appointment_id":   candidate.ID,
			"expires_at":               offerLog.ExpiresAt,
		},
	})

	return &IssueResult{Log: offerLog, Status: IssueOfferSent}, nil
}

func (i *OfferIssuer) rollbackFailedEmail(
	ctx context.Context,
	offerLog *models.ReassignmentLog,
	candidate *models.Appointment,
	sendErr error,
) (*IssueResult, error) {

	candidate.Status = string(apdomain.StatusConfirmed)
	if err := i.appts.UpdateAppointment(ctx, candidate); err != nil {
		return nil, err
	}

	outcome := string(domain.OutcomeRejected)
	offerLog.Outcome = &outcome
	if err := i.logs.UpdateLog(ctx, offerLog); err != nil {
		return nil, err
	}

	i.audit.Dispatch(audit.Event{
		StudioID: offerLog.StudioID,
		Action:   "offer_email_failed",
		Entity:   "reassignment_log",
		EntityID: &offerLog.ID,
		Metadata: map[string]any{"error": sendErr.Error()},
	})

	return &IssueResult{Log: offerLog, Status: IssueEmailFailed}, nil
}
