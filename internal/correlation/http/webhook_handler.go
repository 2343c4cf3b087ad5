// Package http provides the HTTP surface for response correlation: the
// provider webhook endpoint and its rate limiting.
package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/outreach/internal/correlation/http/dto"
	correlationUseCase "github.com/allisson/outreach/internal/correlation/usecase"
	"github.com/allisson/outreach/internal/httputil"
	customValidation "github.com/allisson/outreach/internal/validation"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

// maxBodyBytes bounds the webhook payload size.
const maxBodyBytes = 1 << 20

// WebhookHandler handles inbound events delivered by the messaging provider.
type WebhookHandler struct {
	correlationUseCase correlationUseCase.CorrelationUseCase
	logger             *slog.Logger
}

// NewWebhookHandler creates a new webhook handler with required dependencies.
func NewWebhookHandler(
	correlationUseCase correlationUseCase.CorrelationUseCase,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		correlationUseCase: correlationUseCase,
		logger:             logger,
	}
}

// InboundHandler receives a reply event from the messaging provider.
// POST /v1/webhooks/inbound - Authenticated by the signature header.
// Returns 200 OK for both matched and unmatched events so the provider does
// not redeliver expected outcomes.
func (h *WebhookHandler) InboundHandler(c *gin.Context) {
	// The signature covers the raw body, so it is read before any decoding.
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.correlationUseCase.VerifySignature(body, c.GetHeader(SignatureHeader)); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	var req dto.InboundEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	match, err := h.correlationUseCase.HandleInboundEvent(c.Request.Context(), req.ToInboundEvent())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapMatchToResponse(match))
}
