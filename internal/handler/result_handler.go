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

type resultService interface {
	Submit(ctx context.Context, actor models.Actor, req models.SubmitResultRequest) (*models.Result, error)
	UpdateScores(ctx context.Context, actor models.Actor, id int64, req models.UpdateScoresRequest) (*models.Result, error)
	Recent(ctx context.Context, actor models.Actor) ([]models.ResultDetail, error)
}

type gradedStudentsService interface {
	GradedStudents(ctx context.Context, actor models.Actor) ([]dto.SubjectGradedStudents, error)
}

// ResultHandler handles result entry endpoints.
type ResultHandler struct {
	results resultService
	reports gradedStudentsService
}

// NewResultHandler constructs ResultHandler.
func NewResultHandler(results resultService, reports gradedStudentsService) *ResultHandler {
	return &ResultHandler{results: results, reports: reports}
}

// Submit godoc
// @Summary Record a result for a student in the caller's class
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body models.SubmitResultRequest true "Result payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /results [post]
func (h *ResultHandler) Submit(c *gin.Context) {
	var req models.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid result payload"))
		return
	}
	result, err := h.results.Submit(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil, map[string]interface{}{
		"redirect": models.ViewTeacherDashboard,
		"message":  "Result added successfully!",
	})
}

// UpdateScores godoc
// @Summary Correct the scores of an existing result
// @Tags Results
// @Accept json
// @Produce json
// @Param id path int true "Result ID"
// @Param payload body models.UpdateScoresRequest true "Scores payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /results/{id} [put]
func (h *ResultHandler) UpdateScores(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req models.UpdateScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid scores payload"))
		return
	}
	result, err := h.results.UpdateScores(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Recent godoc
// @Summary Most recent results recorded for the caller's class
// @Tags Results
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /results/recent [get]
func (h *ResultHandler) Recent(c *gin.Context) {
	results, err := h.results.Recent(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []models.ResultDetail{}
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Graded godoc
// @Summary Students ranked by total marks per subject
// @Tags Results
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /results/graded [get]
func (h *ResultHandler) Graded(c *gin.Context) {
	graded, err := h.reports.GradedStudents(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if graded == nil {
		graded = []dto.SubjectGradedStudents{}
	}
	response.JSON(c, http.StatusOK, graded, nil)
}
