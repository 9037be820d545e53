package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/salesrecon/backend/internal/application/pipeline"
)

// PipelineRunner triggers a pipeline run
type PipelineRunner interface {
	Run(ctx context.Context) (*pipeline.Summary, error)
}

// PipelineHandler lets operators start a run over HTTP
type PipelineHandler struct {
	BaseHandler
	runner PipelineRunner
}

// NewPipelineHandler creates a new PipelineHandler
func NewPipelineHandler(runner PipelineRunner) *PipelineHandler {
	return &PipelineHandler{runner: runner}
}

// Run executes one run synchronously and returns its summary. A run that
// finds the lock held answers 409.
// POST /pipeline/runs
func (h *PipelineHandler) Run(c *gin.Context) {
	summary, err := h.runner.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
