package reassignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/BeautifulStudio01/salon-scheduler/internal/audit"
	dbpkg "github.com/BeautifulStudio01/salon-scheduler/internal/db"
	apdomain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/reassignment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httperr"
	infraRepo "github.com/BeautifulStudio01/salon-scheduler/internal/infra/repository"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/scheduler"
)

// --------------------------------------------------
// Fakes
// --------------------------------------------------

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent []sentMail
	fail bool
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type scheduledJob struct {
	Job   scheduler.Job
	RunAt time.Time
}

type fakeScheduler struct {
	jobs []scheduledJob
}

func (s *fakeScheduler) Schedule(ctx context.Context, job scheduler.Job, runAt time.Time) error {
	s.jobs = append(s.jobs, scheduledJob{Job: job, RunAt: runAt})
	return nil
}

func (s *fakeScheduler) byKind(kind scheduler.JobKind) []scheduledJob {
	var out []scheduledJob
	for _, j := range s.jobs {
		if j.Job.Kind == kind {
			out = append(out, j)
		}
	}
	return out
}

// --------------------------------------------------
// Fixture
// --------------------------------------------------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, dbpkg.Migrate(gdb))
	return gdb
}

type fixture struct {
	db     *gorm.DB
	mailer *fakeMailer
	sched  *fakeScheduler

	selector *CandidateSelector
	issuer   *OfferIssuer
	resolver *OfferResolver
	orch     *Orchestrator

	studio       models.Studio
	professional models.User
	service      models.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb := newTestDB(t)

	appts := infraRepo.NewAppointmentGormRepository(gdb)
	logs := infraRepo.NewReassignmentGormRepository(gdb)

	mailer := &fakeMailer{}
	sched := &fakeScheduler{}
	dispatcher := audit.NewDispatcher(audit.New(gdb))

	selector := NewCandidateSelector(appts)
	issuer := NewOfferIssuer(appts, logs, mailer, sched, dispatcher, "http://studio.test")
	resolver := NewOfferResolver(logs, sched, dispatcher)
	orch := NewOrchestrator(appts, logs, selector, issuer, resolver, mailer, dispatcher)

	f := &fixture{
		db:       gdb,
		mailer:   mailer,
		sched:    sched,
		selector: selector,
		issuer:   issuer,
		resolver: resolver,
		orch:     orch,
	}

	f.studio = models.Studio{Name: "Beautiful Studio", Slug: "beautiful", Timezone: "UTC"}
	require.NoError(t, gdb.Create(&f.studio).Error)

	f.professional = models.User{
		StudioID:     f.studio.ID,
		Name:         "Vera",
		Email:        "vera@studio.test",
		PasswordHash: "x",
	}
	require.NoError(t, gdb.Create(&f.professional).Error)

	f.service = models.Service{
		StudioID:         f.studio.ID,
		Name:             "Keratina",
		DurationMin:      60,
		Price:            15000,
		Active:           true,
		OfferDiscount:    3000,
		OfferWaitMinutes: 15,
	}
	require.NoError(t, gdb.Create(&f.service).Error)

	return f
}

func (f *fixture) newClient(t *testing.T, name, email string) models.Client {
	t.Helper()
	c := models.Client{StudioID: f.studio.ID, Name: name, Phone: "11" + name, Email: email}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func (f *fixture) newAppointment(
	t *testing.T,
	client models.Client,
	start time.Time,
	status apdomain.Status,
	deposit float64,
) models.Appointment {
	t.Helper()

	ap := models.Appointment{
		StudioID:       f.studio.ID,
		ProfessionalID: f.professional.ID,
		ClientID:       client.ID,
		ServiceID:      f.service.ID,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Status:         string(status),
		FinalPrice:     f.service.Price,
		DepositPaid:    deposit,
	}
	if status == apdomain.StatusCancelled {
		now := time.Now()
		ap.CancelledAt = &now
	}
	require.NoError(t, f.db.Create(&ap).Error)
	return ap
}

func (f *fixture) reload(t *testing.T, id uint) models.Appointment {
	t.Helper()
	var ap models.Appointment
	require.NoError(t, f.db.First(&ap, id).Error)
	return ap
}

func (f *fixture) logFor(t *testing.T, cancelledID uint) models.ReassignmentLog {
	t.Helper()
	var log models.ReassignmentLog
	require.NoError(t, f.db.
		Where("cancelled_appointment_id = ?", cancelledID).
		Order("id DESC").
		First(&log).Error)
	return log
}

// --------------------------------------------------
// Candidate selection
// --------------------------------------------------

func TestSelectorPicksFurthestFutureCandidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	bia := f.newClient(t, "bia", "bia@test")
	eva := f.newClient(t, "eva", "eva@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	f.newAppointment(t, bia, base.Add(7*24*time.Hour), apdomain.StatusConfirmed, 0)
	far := f.newAppointment(t, eva, base.Add(30*24*time.Hour), apdomain.StatusConfirmed, 0)

	got, err := f.selector.Select(ctx, &cancelled)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, far.ID, got.ID)
}

func TestSelectorIgnoresPendingAndEarlierBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	bia := f.newClient(t, "bia", "bia@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	f.newAppointment(t, bia, base.Add(-2*time.Hour), apdomain.StatusConfirmed, 0)
	f.newAppointment(t, bia, base.Add(48*time.Hour), apdomain.StatusPending, 0)

	got, err := f.selector.Select(ctx, &cancelled)
	require.NoError(t, err)
	assert.Nil(t, got)

	// The room-fill variant does consider pending bookings.
	loose, err := f.selector.SelectRoomFill(ctx, &cancelled)
	require.NoError(t, err)
	require.NotNil(t, loose)
	assert.Equal(t, string(apdomain.StatusPending), loose.Status)
}

func TestSelectorBreaksTiesOnLowestID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	slot := base.Add(10 * 24 * time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	bia := f.newClient(t, "bia", "bia@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	first := f.newAppointment(t, ana, slot, apdomain.StatusConfirmed, 0)
	f.newAppointment(t, bia, slot, apdomain.StatusConfirmed, 0)

	got, err := f.selector.Select(ctx, &cancelled)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
}

// --------------------------------------------------
// Orchestrator
// --------------------------------------------------

func TestOrchestratorIssuesOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	eva := f.newClient(t, "eva", "eva@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	candidate := f.newAppointment(t, eva, base.Add(10*24*time.Hour), apdomain.StatusConfirmed, 0)

	tag, err := f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, TagOfferSent, tag)

	assert.Equal(t, string(apdomain.StatusOfferSent), f.reload(t, candidate.ID).Status)

	log := f.logFor(t, cancelled.ID)
	assert.Nil(t, log.Outcome)
	assert.Equal(t, eva.ID, log.NotifiedClientID)
	assert.Equal(t, 3000.0, log.Discount)
	assert.NotEmpty(t, log.Token)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "eva@test", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].Body, log.Token)

	expires := f.sched.byKind(scheduler.JobExpire)
	require.Len(t, expires, 1)
	assert.Equal(t, log.ID, expires[0].Job.LogID)
	assert.WithinDuration(t, log.ExpiresAt, expires[0].RunAt, time.Second)
}

func TestOrchestratorGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	ana := f.newClient(t, "ana", "ana@test")

	t.Run("not cancelled", func(t *testing.T) {
		ap := f.newAppointment(t, ana, base, apdomain.StatusConfirmed, 0)
		tag, err := f.orch.OnAppointmentCancelled(ctx, ap.ID)
		require.NoError(t, err)
		assert.Equal(t, TagNotCancelled, tag)
	})

	t.Run("in the past", func(t *testing.T) {
		ap := f.newAppointment(t, ana, time.Now().Add(-2*time.Hour), apdomain.StatusCancelled, 0)
		tag, err := f.orch.OnAppointmentCancelled(ctx, ap.ID)
		require.NoError(t, err)
		assert.Equal(t, TagInPast, tag)
	})

	t.Run("slot already retaken", func(t *testing.T) {
		slot := base.Add(3 * time.Hour)
		ap := f.newAppointment(t, ana, slot, apdomain.StatusCancelled, 0)
		f.newAppointment(t, ana, slot, apdomain.StatusConfirmed, 0)

		tag, err := f.orch.OnAppointmentCancelled(ctx, ap.ID)
		require.NoError(t, err)
		assert.Equal(t, TagSlotTaken, tag)
	})

	t.Run("no candidates", func(t *testing.T) {
		ap := f.newAppointment(t, ana, base.Add(6*time.Hour), apdomain.StatusCancelled, 0)
		tag, err := f.orch.OnAppointmentCancelled(ctx, ap.ID)
		require.NoError(t, err)
		assert.Equal(t, TagNoCandidates, tag)
		assert.Empty(t, f.mailer.sent)
	})
}

func TestOrchestratorSkipsWhenOfferPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	eva := f.newClient(t, "eva", "eva@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	f.newAppointment(t, eva, base.Add(10*24*time.Hour), apdomain.StatusConfirmed, 0)

	tag, err := f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	require.Equal(t, TagOfferSent, tag)

	// Second pass for the same cancellation must not open a second
	// offer.
	tag, err = f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, TagOfferPending, tag)
	assert.Len(t, f.mailer.sent, 1)
}

func TestOrchestratorExpiresOverdueOfferOnRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	bia := f.newClient(t, "bia", "bia@test")
	eva := f.newClient(t, "eva", "eva@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	near := f.newAppointment(t, bia, base.Add(7*24*time.Hour), apdomain.StatusConfirmed, 0)
	far := f.newAppointment(t, eva, base.Add(30*24*time.Hour), apdomain.StatusConfirmed, 0)

	tag, err := f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	require.Equal(t, TagOfferSent, tag)

	first := f.logFor(t, cancelled.ID)

	// The deadline passed but the scheduled expiry was lost.
	require.NoError(t, f.db.Model(&models.ReassignmentLog{}).
		Where("id = ?", first.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	// Re-processing the cancellation must enforce the deadline and
	// move on, not report the dead offer as pending.
	tag, err = f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, TagOfferSent, tag)

	var firstAfter models.ReassignmentLog
	require.NoError(t, f.db.First(&firstAfter, first.ID).Error)
	require.NotNil(t, firstAfter.Outcome)
	assert.Equal(t, string(domain.OutcomeExpired), *firstAfter.Outcome)
	assert.Equal(t, string(apdomain.StatusExpired), f.reload(t, far.ID).Status)

	second := f.logFor(t, cancelled.ID)
	assert.Nil(t, second.Outcome)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, near.ID, *second.OfferedAppointmentID)
	assert.Equal(t, string(apdomain.StatusOfferSent), f.reload(t, near.ID).Status)

	require.Len(t, f.mailer.sent, 2)
	assert.Equal(t, "bia@test", f.mailer.sent[1].To)
}

func TestOrchestratorEmailFailureReleasesOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	eva := f.newClient(t, "eva", "eva@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	candidate := f.newAppointment(t, eva, base.Add(10*24*time.Hour), apdomain.StatusConfirmed, 0)

	f.mailer.fail = true

	tag, err := f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, TagEmailFailed, tag)

	// The candidate keeps its original booking and the log closes.
	assert.Equal(t, string(apdomain.StatusConfirmed), f.reload(t, candidate.ID).Status)

	log := f.logFor(t, cancelled.ID)
	require.NotNil(t, log.Outcome)
	assert.Equal(t, string(domain.OutcomeRejected), *log.Outcome)
}

func TestOrchestratorRoomFill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Model(&models.Service{}).
		Where("id = ?", f.service.ID).
		Update("room_fill", true).Error)

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	eva := f.newClient(t, "eva", "eva@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	candidate := f.newAppointment(t, eva, base.Add(48*time.Hour), apdomain.StatusPending, 0)

	tag, err := f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, TagRoomFillNotified, tag)

	// Informational only: no state machine, no log, no token.
	assert.Equal(t, string(apdomain.StatusPending), f.reload(t, candidate.ID).Status)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "eva@test", f.mailer.sent[0].To)

	var count int64
	require.NoError(t, f.db.Model(&models.ReassignmentLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

// --------------------------------------------------
// Resolver
// --------------------------------------------------

// issueOffer runs the orchestrator once and returns the pending log and
// the candidate id.
func issueOffer(t *testing.T, f *fixture) (models.Appointment, models.Appointment, models.ReassignmentLog) {
	t.Helper()
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	eva := f.newClient(t, "eva", "eva@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	candidate := f.newAppointment(t, eva, base.Add(10*24*time.Hour), apdomain.StatusConfirmed, 0)

	tag, err := f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	require.Equal(t, TagOfferSent, tag)

	return cancelled, candidate, f.logFor(t, cancelled.ID)
}

func TestResolverAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled, candidate, log := issueOffer(t, f)

	res, err := f.resolver.Resolve(ctx, log.Token, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccepted, res.Outcome)
	assert.False(t, res.AlreadyResolved)

	// The freed slot now belongs to the candidate's client, at the
	// discounted price.
	won := f.reload(t, cancelled.ID)
	assert.Equal(t, string(apdomain.StatusConfirmed), won.Status)
	assert.Equal(t, candidate.ClientID, won.ClientID)
	assert.Equal(t, 12000.0, won.FinalPrice)
	assert.Nil(t, won.CancelledAt)

	old := f.reload(t, candidate.ID)
	assert.Equal(t, string(apdomain.StatusCancelled), old.Status)

	stored := f.logFor(t, cancelled.ID)
	require.NotNil(t, stored.Outcome)
	assert.Equal(t, string(domain.OutcomeAccepted), *stored.Outcome)

	// Acceptance ends the cycle: nothing is re-enqueued.
	assert.Empty(t, f.sched.byKind(scheduler.JobReassign))
}

func TestResolverAcceptTransfersDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	eva := f.newClient(t, "eva", "eva@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	candidate := f.newAppointment(t, eva, base.Add(10*24*time.Hour), apdomain.StatusConfirmed, 5000)

	tag, err := f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	require.Equal(t, TagOfferSent, tag)

	log := f.logFor(t, cancelled.ID)
	res, err := f.resolver.Resolve(ctx, log.Token, ActionAccept)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeAccepted, res.Outcome)

	won := f.reload(t, cancelled.ID)
	assert.Equal(t, 5000.0, won.DepositPaid)
	// 15000 - 3000 discount - 5000 deposit already paid
	assert.Equal(t, 7000.0, won.FinalPrice)
	_ = candidate
}

func TestResolverReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled, candidate, log := issueOffer(t, f)

	res, err := f.resolver.Resolve(ctx, log.Token, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, res.Outcome)

	// The candidate keeps their original booking.
	assert.Equal(t, string(apdomain.StatusConfirmed), f.reload(t, candidate.ID).Status)

	// Rejection cascades: selection restarts for the same cancellation.
	reassigns := f.sched.byKind(scheduler.JobReassign)
	require.Len(t, reassigns, 1)
	assert.Equal(t, cancelled.ID, reassigns[0].Job.AppointmentID)
}

func TestResolverIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, log := issueOffer(t, f)

	first, err := f.resolver.Resolve(ctx, log.Token, ActionReject)
	require.NoError(t, err)
	require.False(t, first.AlreadyResolved)

	// Replays return the recorded outcome unchanged, even with the
	// opposite action.
	second, err := f.resolver.Resolve(ctx, log.Token, ActionAccept)
	require.NoError(t, err)
	assert.True(t, second.AlreadyResolved)
	assert.Equal(t, domain.OutcomeRejected, second.Outcome)
}

func TestResolverStaleAcceptExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled, candidate, log := issueOffer(t, f)

	require.NoError(t, f.db.Model(&models.ReassignmentLog{}).
		Where("id = ?", log.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	res, err := f.resolver.Resolve(ctx, log.Token, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExpired, res.Outcome)

	assert.Equal(t, string(apdomain.StatusExpired), f.reload(t, candidate.ID).Status)

	reassigns := f.sched.byKind(scheduler.JobReassign)
	require.Len(t, reassigns, 1)
	assert.Equal(t, cancelled.ID, reassigns[0].Job.AppointmentID)
}

func TestResolverAcceptWhenSlotRetaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled, _, log := issueOffer(t, f)

	// Someone books the freed slot through the normal flow before the
	// candidate answers.
	walkIn := f.newClient(t, "wal", "wal@test")
	f.newAppointment(t, walkIn, cancelled.StartTime, apdomain.StatusConfirmed, 0)

	_, err := f.resolver.Resolve(ctx, log.Token, ActionAccept)
	assert.True(t, httperr.IsBusiness(err, domain.CodeSlotUnavailable))
}

func TestResolverUnknownToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, "no-such-token", ActionAccept)
	assert.True(t, httperr.IsBusiness(err, domain.CodeOfferNotFound))

	_, err = f.resolver.Resolve(ctx, "whatever", Action("maybe"))
	assert.True(t, httperr.IsBusiness(err, domain.CodeInvalidAction))
}

func TestResolverExpire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled, candidate, log := issueOffer(t, f)

	t.Run("early fire reschedules", func(t *testing.T) {
		before := len(f.sched.jobs)

		require.NoError(t, f.resolver.Expire(ctx, log.ID))

		stored := f.logFor(t, cancelled.ID)
		assert.Nil(t, stored.Outcome)

		added := f.sched.jobs[before:]
		require.Len(t, added, 1)
		assert.Equal(t, scheduler.JobExpire, added[0].Job.Kind)
		assert.WithinDuration(t, log.ExpiresAt, added[0].RunAt, time.Second)
	})

	t.Run("due fire expires and cascades", func(t *testing.T) {
		require.NoError(t, f.db.Model(&models.ReassignmentLog{}).
			Where("id = ?", log.ID).
			Update("expires_at", time.Now().Add(-time.Minute)).Error)

		require.NoError(t, f.resolver.Expire(ctx, log.ID))

		stored := f.logFor(t, cancelled.ID)
		require.NotNil(t, stored.Outcome)
		assert.Equal(t, string(domain.OutcomeExpired), *stored.Outcome)

		assert.Equal(t, string(apdomain.StatusExpired), f.reload(t, candidate.ID).Status)

		reassigns := f.sched.byKind(scheduler.JobReassign)
		require.Len(t, reassigns, 1)
		assert.Equal(t, cancelled.ID, reassigns[0].Job.AppointmentID)
	})

	t.Run("expire after resolution is a no-op", func(t *testing.T) {
		before := len(f.sched.jobs)
		require.NoError(t, f.resolver.Expire(ctx, log.ID))
		assert.Len(t, f.sched.jobs, before)
	})
}

// The rejection cascade walks toward nearer-future candidates until one
// accepts.
func TestRejectionCascadeReachesNextCandidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	ana := f.newClient(t, "ana", "ana@test")
	bia := f.newClient(t, "bia", "bia@test")
	eva := f.newClient(t, "eva", "eva@test")

	cancelled := f.newAppointment(t, ana, base, apdomain.StatusCancelled, 0)
	nearer := f.newAppointment(t, bia, base.Add(7*24*time.Hour), apdomain.StatusConfirmed, 0)
	farther := f.newAppointment(t, eva, base.Add(30*24*time.Hour), apdomain.StatusConfirmed, 0)

	tag, err := f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	require.Equal(t, TagOfferSent, tag)

	firstLog := f.logFor(t, cancelled.ID)
	require.NotNil(t, firstLog.OfferedAppointmentID)
	assert.Equal(t, farther.ID, *firstLog.OfferedAppointmentID)

	_, err = f.resolver.Resolve(ctx, firstLog.Token, ActionReject)
	require.NoError(t, err)

	// Replay what the worker would do with the cascade job.
	tag, err = f.orch.OnAppointmentCancelled(ctx, cancelled.ID)
	require.NoError(t, err)
	require.Equal(t, TagOfferSent, tag)

	secondLog := f.logFor(t, cancelled.ID)
	require.NotNil(t, secondLog.OfferedAppointmentID)
	assert.Equal(t, nearer.ID, *secondLog.OfferedAppointmentID)
	assert.NotEqual(t, firstLog.Token, secondLog.Token)
}
