package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/BeautifulStudio01/salon-scheduler/internal/audit"
	dbpkg "github.com/BeautifulStudio01/salon-scheduler/internal/db"
	apdomain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httperr"
	infraRepo "github.com/BeautifulStudio01/salon-scheduler/internal/infra/repository"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/scheduler"
)

type fakeScheduler struct {
	jobs []scheduler.Job
}

func (s *fakeScheduler) Schedule(ctx context.Context, job scheduler.Job, runAt time.Time) error {
	s.jobs = append(s.jobs, job)
	return nil
}

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

func seedAppointment(t *testing.T, gdb *gorm.DB, status apdomain.Status) (models.Studio, models.User, models.Appointment) {
	t.Helper()

	studio := models.Studio{Name: "Beautiful Studio", Slug: "beautiful", Timezone: "UTC"}
	require.NoError(t, gdb.Create(&studio).Error)

	professional := models.User{
		StudioID:     studio.ID,
		Name:         "Vera",
		Email:        "vera@studio.test",
		PasswordHash: "x",
	}
	require.NoError(t, gdb.Create(&professional).Error)

	client := models.Client{StudioID: studio.ID, Name: "Ana", Phone: "111"}
	require.NoError(t, gdb.Create(&client).Error)

	service := models.Service{StudioID: studio.ID, Name: "Corte", DurationMin: 60, Price: 8000, Active: true}
	require.NoError(t, gdb.Create(&service).Error)

	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	ap := models.Appointment{
		StudioID:       studio.ID,
		ProfessionalID: professional.ID,
		ClientID:       client.ID,
		ServiceID:      service.ID,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Status:         string(status),
		FinalPrice:     service.Price,
	}
	require.NoError(t, gdb.Create(&ap).Error)

	return studio, professional, ap
}

func TestCancelAppointmentEnqueuesReassignment(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()

	studio, professional, ap := seedAppointment(t, gdb, apdomain.StatusConfirmed)

	repo := infraRepo.NewAppointmentGormRepository(gdb)
	sched := &fakeScheduler{}
	uc := NewCancelAppointment(repo, audit.NewDispatcher(audit.New(gdb)), sched)

	out, err := uc.Execute(ctx, studio.ID, professional.ID, ap.ID)
	require.NoError(t, err)

	assert.Equal(t, string(apdomain.StatusCancelled), out.Status)
	assert.NotNil(t, out.CancelledAt)

	require.Len(t, sched.jobs, 1)
	assert.Equal(t, scheduler.JobReassign, sched.jobs[0].Kind)
	assert.Equal(t, ap.ID, sched.jobs[0].AppointmentID)
}

func TestCancelAppointmentRejectsTerminalStates(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()

	studio, professional, ap := seedAppointment(t, gdb, apdomain.StatusCompleted)

	repo := infraRepo.NewAppointmentGormRepository(gdb)
	sched := &fakeScheduler{}
	uc := NewCancelAppointment(repo, audit.NewDispatcher(audit.New(gdb)), sched)

	_, err := uc.Execute(ctx, studio.ID, professional.ID, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
	assert.Empty(t, sched.jobs)
}

func TestCancelAppointmentUnknownID(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()

	studio, professional, _ := seedAppointment(t, gdb, apdomain.StatusConfirmed)

	repo := infraRepo.NewAppointmentGormRepository(gdb)
	uc := NewCancelAppointment(repo, audit.NewDispatcher(audit.New(gdb)), &fakeScheduler{})

	_, err := uc.Execute(ctx, studio.ID, professional.ID, 9999)
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))
}
