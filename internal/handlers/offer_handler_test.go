package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/BeautifulStudio01/salon-scheduler/internal/audit"
	dbpkg "github.com/BeautifulStudio01/salon-scheduler/internal/db"
	apdomain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	infraRepo "github.com/BeautifulStudio01/salon-scheduler/internal/infra/repository"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/scheduler"
	"github.com/BeautifulStudio01/salon-scheduler/internal/usecase/reassignment"
)

type noopScheduler struct{}

func (noopScheduler) Schedule(ctx context.Context, job scheduler.Job, runAt time.Time) error {
	return nil
}

type offerFixture struct {
	db        *gorm.DB
	router    *gin.Engine
	cancelled models.Appointment
	candidate models.Appointment
	token     string
}

func newOfferFixture(t *testing.T) *offerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, dbpkg.Migrate(gdb))

	studio := models.Studio{Name: "Beautiful Studio", Slug: "beautiful", Timezone: "UTC"}
	require.NoError(t, gdb.Create(&studio).Error)

	professional := models.User{StudioID: studio.ID, Name: "Vera", Email: "vera@studio.test", PasswordHash: "x"}
	require.NoError(t, gdb.Create(&professional).Error)

	ana := models.Client{StudioID: studio.ID, Name: "Ana", Phone: "111"}
	require.NoError(t, gdb.Create(&ana).Error)
	eva := models.Client{StudioID: studio.ID, Name: "Eva", Phone: "222", Email: "eva@test"}
	require.NoError(t, gdb.Create(&eva).Error)

	service := models.Service{StudioID: studio.ID, Name: "Keratina", DurationMin: 60, Price: 15000, Active: true, OfferDiscount: 3000}
	require.NoError(t, gdb.Create(&service).Error)

	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	cancelledAt := time.Now()

	cancelled := models.Appointment{
		StudioID:       studio.ID,
		ProfessionalID: professional.ID,
		ClientID:       ana.ID,
		ServiceID:      service.ID,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Status:         string(apdomain.StatusCancelled),
		CancelledAt:    &cancelledAt,
	}
	require.NoError(t, gdb.Create(&cancelled).Error)

	candidate := models.Appointment{
		StudioID:       studio.ID,
		ProfessionalID: professional.ID,
		ClientID:       eva.ID,
		ServiceID:      service.ID,
		StartTime:      start.Add(10 * 24 * time.Hour),
		EndTime:        start.Add(10*24*time.Hour + time.Hour),
		Status:         string(apdomain.StatusOfferSent),
	}
	require.NoError(t, gdb.Create(&candidate).Error)

	token := "tok-handler-test"
	offerLog := models.ReassignmentLog{
		StudioID:               studio.ID,
		CancelledAppointmentID: cancelled.ID,
		OfferedAppointmentID:   &candidate.ID,
		NotifiedClientID:       eva.ID,
		Discount:               service.OfferDiscount,
		Token:                  token,
		IssuedAt:               time.Now(),
		ExpiresAt:              time.Now().Add(15 * time.Minute),
	}
	require.NoError(t, gdb.Create(&offerLog).Error)

	resolver := reassignment.NewOfferResolver(
		infraRepo.NewReassignmentGormRepository(gdb),
		noopScheduler{},
		audit.NewDispatcher(audit.New(gdb)),
	)

	h := NewOfferHandler(resolver)
	router := gin.New()
	router.GET("/api/offers/:token", h.Resolve)
	router.POST("/api/offers/:token", h.Resolve)

	return &offerFixture{
		db:        gdb,
		router:    router,
		cancelled: cancelled,
		candidate: candidate,
		token:     token,
	}
}

func (f *offerFixture) request(method, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, nil)
	f.router.ServeHTTP(w, req)
	return w
}

func TestOfferEndpointAccept(t *testing.T) {
	f := newOfferFixture(t)

	w := f.request(http.MethodGet, "/api/offers/"+f.token+"?accion=aceptar")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"accepted"`)

	var won models.Appointment
	require.NoError(t, f.db.First(&won, f.cancelled.ID).Error)
	assert.Equal(t, string(apdomain.StatusConfirmed), won.Status)
	assert.Equal(t, f.candidate.ClientID, won.ClientID)
	assert.Equal(t, 12000.0, won.FinalPrice)
}

func TestOfferEndpointReject(t *testing.T) {
	f := newOfferFixture(t)

	w := f.request(http.MethodPost, "/api/offers/"+f.token+"?accion=rechazar")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"rejected"`)

	var released models.Appointment
	require.NoError(t, f.db.First(&released, f.candidate.ID).Error)
	assert.Equal(t, string(apdomain.StatusConfirmed), released.Status)
}

func TestOfferEndpointReplayReturnsRecordedOutcome(t *testing.T) {
	f := newOfferFixture(t)

	first := f.request(http.MethodGet, "/api/offers/"+f.token+"?accion=rechazar")
	require.Equal(t, http.StatusOK, first.Code)

	replay := f.request(http.MethodGet, "/api/offers/"+f.token+"?accion=aceptar")
	assert.Equal(t, http.StatusOK, replay.Code)
	assert.Contains(t, replay.Body.String(), `"outcome":"rejected"`)
	assert.Contains(t, replay.Body.String(), `"already_resolved":true`)
}

func TestOfferEndpointBadRequests(t *testing.T) {
	f := newOfferFixture(t)

	t.Run("unknown token", func(t *testing.T) {
		w := f.request(http.MethodGet, "/api/offers/nope?accion=aceptar")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "offer_not_found")
	})

	t.Run("missing action", func(t *testing.T) {
		w := f.request(http.MethodGet, "/api/offers/"+f.token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_action")
	})

	t.Run("unknown action", func(t *testing.T) {
		w := f.request(http.MethodGet, "/api/offers/"+f.token+"?accion=quizas")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_action")
	})
}

func TestOfferEndpointSlotConflict(t *testing.T) {
	f := newOfferFixture(t)

	// A walk-in books the freed slot before the candidate answers.
	walkIn := models.Appointment{
		StudioID:       f.cancelled.StudioID,
		ProfessionalID: f.cancelled.ProfessionalID,
		ClientID:       f.cancelled.ClientID,
		ServiceID:      f.cancelled.ServiceID,
		StartTime:      f.cancelled.StartTime,
		EndTime:        f.cancelled.EndTime,
		Status:         string(apdomain.StatusConfirmed),
	}
	require.NoError(t, f.db.Create(&walkIn).Error)

	w := f.request(http.MethodGet, "/api/offers/"+f.token+"?accion=aceptar")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "slot_unavailable")
}

func TestOfferEndpointCandidateConflict(t *testing.T) {
	f := newOfferFixture(t)

	// The candidate booking left offer_sent through another path.
	require.NoError(t, f.db.Model(&models.Appointment{}).
		Where("id = ?", f.candidate.ID).
		Update("status", string(apdomain.StatusCancelled)).Error)

	w := f.request(http.MethodGet, "/api/offers/"+f.token+"?accion=aceptar")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "candidate_unavailable")
}
