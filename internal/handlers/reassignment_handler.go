package handlers

import (
	"github.com/gin-gonic/gin"

	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/reassignment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httperr"
	"github.com/BeautifulStudio01/salon-scheduler/internal/httpresp"
	"github.com/BeautifulStudio01/salon-scheduler/internal/middleware"
)

type ReassignmentHandler struct {
	logs domain.Repository
}

func NewReassignmentHandler(logs domain.Repository) *ReassignmentHandler {
	return &ReassignmentHandler{logs: logs}
}

func (h *ReassignmentHandler) List(c *gin.Context) {
	studioID := c.MustGet(middleware.ContextStudioID).(uint)

	logs, err := h.logs.ListLogsForStudio(c.Request.Context(), studioID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_reassignments", "Error al listar reasignaciones.")
		return
	}

	httpresp.List(c, logs)
}
