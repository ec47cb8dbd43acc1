package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/reassignment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httperr"
	"github.com/BeautifulStudio01/salon-scheduler/internal/usecase/reassignment"
)

// OfferHandler serves the public accept/reject link sent to the
// candidate client by e-mail. No authentication: the token is the
// credential.
type OfferHandler struct {
	resolver *reassignment.OfferResolver
}

func NewOfferHandler(resolver *reassignment.OfferResolver) *OfferHandler {
	return &OfferHandler{resolver: resolver}
}

type resolveOfferRequest struct {
	Accion string `json:"accion"`
}

func (h *OfferHandler) Resolve(c *gin.Context) {
	token := c.Param("token")

	raw := c.Query("accion")
	if raw == "" {
		var req resolveOfferRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			raw = req.Accion
		}
	}

	var action reassignment.Action
	switch raw {
	case "aceptar":
		action = reassignment.ActionAccept
	case "rechazar":
		action = reassignment.ActionReject
	default:
		httperr.BadRequest(c, domain.CodeInvalidAction, "Acción inválida: use aceptar o rechazar.")
		return
	}

	res, err := h.resolver.Resolve(c.Request.Context(), token, action)
	if err != nil {
		switch httperr.BusinessCode(err) {
		case domain.CodeOfferNotFound:
			httperr.BadRequest(c, domain.CodeOfferNotFound, "Oferta inexistente.")
		case domain.CodeInvalidAction:
			httperr.BadRequest(c, domain.CodeInvalidAction, "Acción inválida.")
		case domain.CodeSlotUnavailable:
			httperr.Conflict(c, domain.CodeSlotUnavailable, "El horario ya fue ocupado.")
		case domain.CodeCandidateUnavailable:
			httperr.Conflict(c, domain.CodeCandidateUnavailable, "Tu turno ya no está en oferta.")
		default:
			httperr.Internal(c, "internal_error", "Error interno.")
		}
		return
	}

	c.JSON(http.StatusOK, res)
}
