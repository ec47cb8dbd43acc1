package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httperr"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"github.com/BeautifulStudio01/salon-scheduler/internal/usecase/appointment"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

// PublicHandler exposes the unauthenticated booking surface keyed by
// the studio slug.
type PublicHandler struct {
	db           *gorm.DB
	create       *appointment.CreateAppointment
	availability *appointment.GetAvailability
}

func NewPublicHandler(
	db *gorm.DB,
	create *appointment.CreateAppointment,
	availability *appointment.GetAvailability,
) *PublicHandler {
	return &PublicHandler{
		db:           db,
		create:       create,
		availability: availability,
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type PublicCreateAppointmentRequest struct {
	ClientName  string  `json:"client_name" binding:"required"`
	ClientPhone string  `json:"client_phone" binding:"required"`
	ClientEmail string  `json:"client_email"`
	ServiceID   uint    `json:"service_id" binding:"required"`
	Date        string  `json:"date" binding:"required"` // YYYY-MM-DD
	Time        string  `json:"time" binding:"required"` // HH:mm
	Notes       string  `json:"notes"`
	DepositPaid float64 `json:"deposit_paid"`
}

////////////////////////////////////////////////////////
// SERVICES
////////////////////////////////////////////////////////

func (h *PublicHandler) ListServices(c *gin.Context) {
	slug := c.Param("slug")

	var studio models.Studio
	if err := h.db.Where("slug = ?", slug).First(&studio).Error; err != nil {
		httperr.NotFound(c, "studio_not_found", "Estudio no encontrado.")
		return
	}

	category := strings.TrimSpace(strings.ToLower(c.Query("category")))
	query := strings.TrimSpace(strings.ToLower(c.Query("query")))

	q := h.db.
		Where("studio_id = ? AND active = true", studio.ID)

	if category != "" {
		q = q.Where("LOWER(category) = ?", category)
	}

	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var services []models.Service
	if err := q.Order("id ASC").Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Error al listar servicios.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"studio":   studio,
		"services": services,
	})
}

////////////////////////////////////////////////////////
// AVAILABILITY
////////////////////////////////////////////////////////

func (h *PublicHandler) AvailabilityForClient(c *gin.Context) {
	slug := c.Param("slug")
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
	if err := h.db.Where("slug = ?", slug).First(&studio).Error; err != nil {
		httperr.NotFound(c, "studio_not_found", "Estudio no encontrado.")
		return
	}

	var professional models.User
	if err := h.db.
		Where("studio_id = ? AND role = ?", studio.ID, "owner").
		First(&professional).Error; err != nil {

		httperr.BadRequest(c, "professional_not_found", "Profesional no encontrado.")
		return
	}

	date, err := parseDateInStudio(&studio, dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Fecha inválida.")
		return
	}

	slots, err := h.availability.Execute(
		c.Request.Context(),
		domain.AvailabilityInput{
			StudioID:       studio.ID,
			ProfessionalID: professional.ID,
			ServiceID:      uint(serviceID),
			Date:           date,
		},
	)
	if err != nil {
		if httperr.IsBusiness(err, "service_not_found") {
			httperr.BadRequest(c, "service_not_found", "Servicio inválido.")
			return
		}

		httperr.Internal(c, "availability_failed", "Error al calcular horarios.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  dateStr,
		"slots": slots,
	})
}

////////////////////////////////////////////////////////
// CREATE APPOINTMENT (PUBLIC → pending)
////////////////////////////////////////////////////////

func (h *PublicHandler) CreateAppointment(c *gin.Context) {
	slug := c.Param("slug")

	var studio models.Studio
	if err := h.db.Where("slug = ?", slug).First(&studio).Error; err != nil {
		httperr.NotFound(c, "studio_not_found", "Estudio no encontrado.")
		return
	}

	var req PublicCreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Datos inválidos.")
		return
	}

	var professional models.User
	if err := h.db.
		Where("studio_id = ? AND role = ?", studio.ID, "owner").
		First(&professional).Error; err != nil {

		httperr.BadRequest(c, "professional_not_found", "Profesional no encontrado.")
		return
	}

	ap, err := h.create.Execute(
		c.Request.Context(),
		appointment.CreateAppointmentInput{
			StudioID:       studio.ID,
			ProfessionalID: professional.ID,
			ClientName:     req.ClientName,
			ClientPhone:    req.ClientPhone,
			ClientEmail:    req.ClientEmail,
			ServiceID:      req.ServiceID,
			Date:           req.Date,
			Time:           req.Time,
			Notes:          req.Notes,
			DepositPaid:    req.DepositPaid,
		},
	)
	if err != nil {
		mapAppointmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ap)
}
