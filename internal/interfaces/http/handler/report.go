package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	appreport "github.com/salesrecon/backend/internal/application/report"
	"github.com/salesrecon/backend/internal/domain/report"
	"github.com/salesrecon/backend/internal/interfaces/http/dto"
)

// ReportReader is the report service surface the handler uses
type ReportReader interface {
	TopCityPerHour(ctx context.Context) ([]appreport.CityHourResponse, error)
	TopCityHours(ctx context.Context, n int) ([]appreport.CityHourResponse, error)
	TierSummaries(ctx context.Context) ([]report.TierSummary, error)
}

// ReportHandler serves the settlement reports over the gold table
type ReportHandler struct {
	BaseHandler
	reports ReportReader
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports ReportReader) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// TopCityPerHour returns the leading city of each order hour
// GET /reports/top-city-per-hour
func (h *ReportHandler) TopCityPerHour(c *gin.Context) {
	rows, err := h.reports.TopCityPerHour(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// TopCityHours returns the n best (hour, city) pairs
// GET /reports/top-city-hours?n=
func (h *ReportHandler) TopCityHours(c *gin.Context) {
	var req dto.TopRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
		return
	}
	rows, err := h.reports.TopCityHours(c.Request.Context(), req.N)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// TierSummaries returns city counts and settlement per tier
// GET /reports/tiers
func (h *ReportHandler) TierSummaries(c *gin.Context) {
	rows, err := h.reports.TierSummaries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}
