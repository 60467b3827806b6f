package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/seq2seq-summarizer/internal/domain/summarizer"
	"github.com/yanqian/seq2seq-summarizer/internal/infra/config"
	apperrors "github.com/yanqian/seq2seq-summarizer/pkg/errors"
)

// SummarizeResponse is the success body of POST /summarize.
type SummarizeResponse struct {
	Success bool   `json:"success"`
	Summary string `json:"summary"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Model   string `json:"model"`
	Backend string `json:"backend,omitempty"`
}

// Handler wires the HTTP transport to the summarization pipeline.
type Handler struct {
	summarizerSvc summarizer.Service
	model         string
	backend       string
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(summarySvc summarizer.Service, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		summarizerSvc: summarySvc,
		model:         cfg.Model.Name,
		backend:       cfg.Model.Backend,
		logger:        logger.With("component", "http.handler"),
	}
}

// Health reports liveness and the loaded model.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Model: h.model, Backend: h.backend})
}

// Summarize handles the sync summarization endpoint.
func (h *Handler) Summarize(c *gin.Context) {
	var req summarizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	result := h.summarizerSvc.Summarize(c.Request.Context(), req)
	if !result.OK() {
		status := http.StatusInternalServerError
		if apperrors.IsCode(result.Err, summarizer.CodeInvalidInput) {
			status = http.StatusBadRequest
		}
		abortWithError(c, NewHTTPError(status, result.Kind(), apperrors.Detail(result.Err), result.Err))
		return
	}

	c.JSON(http.StatusOK, SummarizeResponse{Success: true, Summary: result.Summary})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
