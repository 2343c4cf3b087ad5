package usecase

import (
	"context"
	"time"

	correlationDomain "github.com/allisson/outreach/internal/correlation/domain"
	"github.com/allisson/outreach/internal/metrics"
)

// correlationUseCaseWithMetrics decorates CorrelationUseCase with metrics
// instrumentation.
type correlationUseCaseWithMetrics struct {
	next    CorrelationUseCase
	metrics metrics.BusinessMetrics
}

// NewCorrelationUseCaseWithMetrics wraps a CorrelationUseCase with metrics recording.
func NewCorrelationUseCaseWithMetrics(useCase CorrelationUseCase, m metrics.BusinessMetrics) CorrelationUseCase {
	return &correlationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// VerifySignature records metrics for signature checks.
func (c *correlationUseCaseWithMetrics) VerifySignature(body []byte, signature string) error {
	err := c.next.VerifySignature(body, signature)

	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordOperation(context.Background(), "correlation", "signature_verify", status)

	return err
}

// HandleInboundEvent records metrics for webhook/poll event handling.
func (c *correlationUseCaseWithMetrics) HandleInboundEvent(ctx context.Context, event *correlationDomain.InboundEvent) (*correlationDomain.Match, error) {
	start := time.Now()
	match, err := c.next.HandleInboundEvent(ctx, event)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "correlation", "webhook_handle", status)
	c.metrics.RecordDuration(ctx, "correlation", "webhook_handle", time.Since(start), status)

	return match, err
}

// PollReplies records metrics for reply poll sweeps.
func (c *correlationUseCaseWithMetrics) PollReplies(ctx context.Context) (int, error) {
	start := time.Now()
	matched, err := c.next.PollReplies(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "correlation", "reply_poll", status)
	c.metrics.RecordDuration(ctx, "correlation", "reply_poll", time.Since(start), status)

	return matched, err
}
