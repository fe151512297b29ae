package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/rs/zerolog"
)

// DashboardHandler handles admin dashboard endpoints.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	log              zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		log:              log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// GetDashboard godoc
// GET /api/v1/admin/dashboard
// Returns bank and exam totals, the active edition, and recent finished exams.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	data, err := h.dashboardService.Summary(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}
