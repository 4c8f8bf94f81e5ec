package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-records-api/internal/dto"
	"github.com/noah-isme/exam-records-api/internal/middleware"
	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/pkg/response"
)

type dashboardService interface {
	Teacher(ctx context.Context, actor models.Actor) (*dto.TeacherDashboard, error)
	EO(ctx context.Context, actor models.Actor) (*dto.EODashboard, error)
}

// DashboardHandler exposes the landing views for teachers and examination officers.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Teacher godoc
// @Summary Class teacher dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/teacher [get]
func (h *DashboardHandler) Teacher(c *gin.Context) {
	data, err := h.service.Teacher(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// EO godoc
// @Summary Examination officer dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard/eo [get]
func (h *DashboardHandler) EO(c *gin.Context) {
	data, err := h.service.EO(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}
