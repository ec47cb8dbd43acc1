package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httperr"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httpresp"
	"github.com/BeautifulStudio01/salon-scheduler/internal/middleware"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	db *gorm.DB

	create       *appointment.CreateAppointment
	confirm      *appointment.ConfirmAppointment
	start        *appointment.StartAppointment
	complete     *appointment.CompleteAppointment
	cancel       *appointment.CancelAppointment
	noShow       *appointment.MarkNoShow
	availability *appointment.GetAvailability
	listByDate   *appointment.ListAppointmentsByDate
	listByMonth  *appointment.ListAppointmentsByMonth
}

func NewAppointmentHandler(
	db *gorm.DB,
	create *appointment.CreateAppointment,
	confirm *appointment.ConfirmAppointment,
	start *appointment.StartAppointment,
	complete *appointment.CompleteAppointment,
	cancel *appointment.CancelAppointment,
	noShow *appointment.MarkNoShow,
	availability *appointment.GetAvailability,
	listByDate *appointment.ListAppointmentsByDate,
	listByMonth *appointment.ListAppointmentsByMonth,
) *AppointmentHandler {
	return &AppointmentHandler{
		db:           db,
		create:       create,
		confirm:      confirm,
		start:        start,
		complete:     complete,
		cancel:       cancel,
		noShow:       noShow,
		availability: availability,
		listByDate:   listByDate,
		listByMonth:  listByMonth,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	ClientName  string  `json:"client_name" binding:"required"`
	ClientPhone string  `json:"client_phone" binding:"required"`
	ClientEmail string  `json:"client_email"`
	ServiceID   uint    `json:"service_id" binding:"required"`
	RoomID      *uint   `json:"room_id"`
	Date        string  `json:"date" binding:"required"`
	Time        string  `json:"time" binding:"required"`
	Notes       string  `json:"notes"`
	DepositPaid float64 `json:"deposit_paid"`
}

type CompleteAppointmentRequest struct {
	EmployeeNotes string `json:"employee_notes"`
}

// ======================================================
// ERROR MAPPING
// ======================================================

func mapAppointmentError(c *gin.Context, err error) {
	switch httperr.BusinessCode(err) {
	case "invalid_date_or_time":
		httperr.BadRequest(c, "invalid_date_or_time", "Fecha u hora inválida.")
	case "too_soon":
		httperr.BadRequest(c, "too_soon", "Horario inválido.")
	case "service_not_found":
		httperr.BadRequest(c, "service_not_found", "Servicio no encontrado.")
	case "outside_working_hours":
		httperr.BadRequest(c, "outside_working_hours", "Fuera del horario de atención.")
	case "time_conflict":
		httperr.Conflict(c, "time_conflict", "Conflicto de horario.")
	case "invalid_state":
		httperr.BadRequest(c, "invalid_state", "El turno no admite esa transición.")
	case "appointment_not_found":
		httperr.NotFound(c, "appointment_not_found", "Turno no encontrado.")
	default:
		httperr.Internal(c, "internal_error", "Error interno.")
	}
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	professionalID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Datos inválidos.")
		return
	}

	ap, err := h.create.Execute(c.Request.Context(), appointment.CreateAppointmentInput{
		StudioID:       studioID,
		ProfessionalID: professionalID,
		ClientName:     req.ClientName,
		ClientPhone:    req.ClientPhone,
		ClientEmail:    req.ClientEmail,
		ServiceID:      req.ServiceID,
		RoomID:         req.RoomID,
		Date:           req.Date,
		Time:           req.Time,
		Notes:          req.Notes,
		DepositPaid:    req.DepositPaid,
		Confirmed:      true,
	})
	if err != nil {
		mapAppointmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ap)
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *AppointmentHandler) Availability(c *gin.Context) {
	professionalID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	dateStr := c.Query("date")
	serviceIDStr := c.Query("service_id")

	if dateStr == "" || serviceIDStr == "" {
		httperr.BadRequest(c, "missing_params", "Fecha y servicio obligatorios.")
		return
	}

	serviceID, err := strconv.ParseUint(serviceIDStr, 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_service_id", "Servicio inválido.")
		return
	}

	var studio models.Studio
	if err := h.db.First(&studio, studioID).Error; err != nil {
		httperr.Internal(c, "studio_not_found", "Estudio no encontrado.")
		return
	}

	date, err := parseDateInStudio(&studio, dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Fecha inválida.")
		return
	}

	slots, err := h.availability.Execute(c.Request.Context(), domain.AvailabilityInput{
		StudioID:       studioID,
		ProfessionalID: professionalID,
		ServiceID:      uint(serviceID),
		Date:           date,
	})
	if err != nil {
		mapAppointmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  dateStr,
		"slots": slots,
	})
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	professionalID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Fecha obligatoria.")
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Fecha inválida.")
		return
	}

	out, err := h.listByDate.Execute(c.Request.Context(), professionalID, studioID, date)
	if err != nil {
		httperr.Internal(c, "failed_to_list_appointments", "Error al listar turnos.")
		return
	}

	httpresp.List(c, out)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	professionalID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	yearStr := c.Query("year")
	monthStr := c.Query("month")

	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Año y mes son obligatorios.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "Año inválido.")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, "invalid_month", "Mes inválido.")
		return
	}

	out, err := h.listByMonth.Execute(c.Request.Context(), professionalID, studioID, year, month)
	if err != nil {
		httperr.Internal(c, "failed_to_list_appointments", "Error al listar turnos.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":         year,
		"month":        month,
		"appointments": out,
	})
}

// ======================================================
// STATE TRANSITIONS
// ======================================================

func (h *AppointmentHandler) appointmentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return 0, false
	}
	return uint(id), true
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	professionalID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id, ok := h.appointmentID(c)
	if !ok {
		return
	}

	ap, err := h.confirm.Execute(c.Request.Context(), studioID, professionalID, id)
	if err != nil {
		mapAppointmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}

func (h *AppointmentHandler) Start(c *gin.Context) {
	professionalID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id, ok := h.appointmentID(c)
	if !ok {
		return
	}

	ap, err := h.start.Execute(c.Request.Context(), studioID, professionalID, id)
	if err != nil {
		mapAppointmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	professionalID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id, ok := h.appointmentID(c)
	if !ok {
		return
	}

	var req CompleteAppointmentRequest
	_ = c.ShouldBindJSON(&req)

	ap, err := h.complete.Execute(c.Request.Context(), studioID, professionalID, id, req.EmployeeNotes)
	if err != nil {
		mapAppointmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	professionalID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id, ok := h.appointmentID(c)
	if !ok {
		return
	}

	ap, err := h.cancel.Execute(c.Request.Context(), studioID, professionalID, id)
	if err != nil {
		mapAppointmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}

func (h *AppointmentHandler) NoShow(c *gin.Context) {
	professionalID := c.MustGet(middleware.ContextUserID).(uint)
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	id, ok := h.appointmentID(c)
	if !ok {
		return
	}

	ap, err := h.noShow.Execute(c.Request.Context(), studioID, professionalID, id)
	if err != nil {
		mapAppointmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}
