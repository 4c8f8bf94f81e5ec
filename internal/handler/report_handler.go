package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-records-api/internal/dto"
	"github.com/noah-isme/exam-records-api/internal/middleware"
	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/service"
	"github.com/noah-isme/exam-records-api/pkg/response"
)

type reportService interface {
	ClassReport(ctx context.Context, actor models.Actor) ([]dto.ClassResults, error)
	Export(ctx context.Context, actor models.Actor, format string) (*dto.ExportFile, error)
}

// ReportHandler exposes examination officer reporting endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ClassReport godoc
// @Summary Results grouped by class and subject
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/results [get]
func (h *ReportHandler) ClassReport(c *gin.Context) {
	report, err := h.reports.ClassReport(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if report == nil {
		report = []dto.ClassResults{}
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download every recorded result
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/results/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	file, err := h.reports.Export(c.Request.Context(), middleware.ActorFrom(c), format)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
