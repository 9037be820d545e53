package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	apptiering "github.com/salesrecon/backend/internal/application/tiering"
	"github.com/salesrecon/backend/internal/domain/tiering"
	"github.com/salesrecon/backend/internal/interfaces/http/dto"
)

// TierReader reads the tiering results
type TierReader interface {
	Assignments(ctx context.Context) ([]tiering.ClusterAssignment, error)
	Elbow(ctx context.Context) ([]tiering.ElbowPoint, error)
}

// TierHandler serves city tier assignments
type TierHandler struct {
	BaseHandler
	tiers TierReader
}

// NewTierHandler creates a new TierHandler
func NewTierHandler(tiers TierReader) *TierHandler {
	return &TierHandler{tiers: tiers}
}

// ListAssignments returns every city with its cluster
// GET /tiers
func (h *TierHandler) ListAssignments(c *gin.Context) {
	rows, err := h.tiers.Assignments(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToClusterAssignmentResponses(rows))
}

// ExportCSV streams the assignments as CSV
// GET /tiers/export
func (h *TierHandler) ExportCSV(c *gin.Context) {
	rows, err := h.tiers.Assignments(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	body, err := apptiering.ExportCSV(rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="city_tiers.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

// Elbow computes the inertia curve over the current gold snapshot
// GET /tiers/elbow
func (h *TierHandler) Elbow(c *gin.Context) {
	points, err := h.tiers.Elbow(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToElbowPointResponses(points))
}
