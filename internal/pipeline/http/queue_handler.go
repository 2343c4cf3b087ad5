package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/outreach/internal/httputil"
	"github.com/allisson/outreach/internal/pipeline/http/dto"
	queueUseCase "github.com/allisson/outreach/internal/queue/usecase"
)

// QueueHandler exposes the durable queue's counters.
type QueueHandler struct {
	queueUseCase queueUseCase.QueueUseCase
	logger       *slog.Logger
}

// NewQueueHandler creates a new queue handler with required dependencies.
func NewQueueHandler(useCase queueUseCase.QueueUseCase, logger *slog.Logger) *QueueHandler {
	return &QueueHandler{
		queueUseCase: useCase,
		logger:       logger,
	}
}

// StatsHandler reports per-status queue job counts.
// GET /v1/queue/stats
func (h *QueueHandler) StatsHandler(c *gin.Context) {
	stats, err := h.queueUseCase.Stats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatsToResponse(stats))
}
