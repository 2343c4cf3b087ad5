// Package http provides HTTP handlers for campaign pipeline operations:
// processing runs, pause/resume, progress, retry sweeps and queue
// observability.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	campaignDomain "github.com/allisson/outreach/internal/campaign/domain"
	"github.com/allisson/outreach/internal/httputil"
	"github.com/allisson/outreach/internal/pipeline/http/dto"
	pipelineUseCase "github.com/allisson/outreach/internal/pipeline/usecase"
)

// CampaignHandler handles HTTP requests for campaign pipeline operations.
type CampaignHandler struct {
	pipelineUseCase pipelineUseCase.PipelineUseCase
	logger          *slog.Logger
}

// NewCampaignHandler creates a new campaign handler with required dependencies.
func NewCampaignHandler(
	useCase pipelineUseCase.PipelineUseCase,
	logger *slog.Logger,
) *CampaignHandler {
	return &CampaignHandler{
		pipelineUseCase: useCase,
		logger:          logger,
	}
}

// campaignID parses the campaign id path parameter. A malformed id writes a
// 400 response and returns false.
func (h *CampaignHandler) campaignID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// ProcessHandler runs the staged pipeline over a campaign's eligible
// prospects.
// POST /v1/campaigns/:id/process
// Returns 200 OK with the run summary; individual prospect failures are
// reported inside the summary, not as an error status.
func (h *CampaignHandler) ProcessHandler(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}

	result, err := h.pipelineUseCase.ProcessCampaign(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapResultToResponse(id.String(), result))
}

// PauseHandler requests a cooperative stop of campaign processing.
// POST /v1/campaigns/:id/pause
// Returns 200 OK; an in-flight run finishes its current sub-batch before
// observing the pause.
func (h *CampaignHandler) PauseHandler(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}

	if err := h.pipelineUseCase.PauseCampaign(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.CampaignStatusResponse{
		CampaignID: id.String(),
		Status:     string(campaignDomain.CampaignStatusPaused),
	})
}

// ResumeHandler reactivates a paused campaign.
// POST /v1/campaigns/:id/resume
func (h *CampaignHandler) ResumeHandler(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}

	if err := h.pipelineUseCase.ResumeCampaign(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.CampaignStatusResponse{
		CampaignID: id.String(),
		Status:     string(campaignDomain.CampaignStatusActive),
	})
}

// ProgressHandler reports the campaign's email job counters and completion
// percentage.
// GET /v1/campaigns/:id/progress
func (h *CampaignHandler) ProgressHandler(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}

	progress, err := h.pipelineUseCase.Progress(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProgressToResponse(progress))
}

// ListEmailJobsHandler returns a page of the campaign's email jobs.
// GET /v1/campaigns/:id/email-jobs?offset=N&limit=N
func (h *CampaignHandler) ListEmailJobsHandler(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	jobs, err := h.pipelineUseCase.ListEmailJobs(c.Request.Context(), id, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEmailJobsToListResponse(jobs))
}

// RetryHandler runs the failed-work retry sweeps.
// POST /v1/retries
// The sweeps are idempotent, so the endpoint is safe to call repeatedly.
func (h *CampaignHandler) RetryHandler(c *gin.Context) {
	result, err := h.pipelineUseCase.RetryFailedJobs(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRetryResultToResponse(result))
}
