package handler

import (
	"github.com/gin-gonic/gin"

	"ftplog/internal/service"
)

// RunHandler handles manual ingestion triggers.
type RunHandler struct {
	ingestService service.IngestService
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(ingestService service.IngestService) *RunHandler {
	return &RunHandler{ingestService: ingestService}
}

// Trigger handles POST /api/v1/runs
// It runs ingestion synchronously and returns the run summary.
func (h *RunHandler) Trigger(c *gin.Context) {
	summary, err := h.ingestService.Run(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, summary)
}
