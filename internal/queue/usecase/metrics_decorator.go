package usecase

import (
	"context"
	"time"

	"github.com/allisson/outreach/internal/metrics"
	"github.com/allisson/outreach/internal/queue/domain"
)

// queueUseCaseWithMetrics decorates QueueUseCase with metrics instrumentation.
type queueUseCaseWithMetrics struct {
	next    QueueUseCase
	metrics metrics.BusinessMetrics
}

// NewQueueUseCaseWithMetrics wraps a QueueUseCase with metrics recording.
func NewQueueUseCaseWithMetrics(useCase QueueUseCase, m metrics.BusinessMetrics) QueueUseCase {
	return &queueUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Enqueue records metrics for job enqueue operations.
func (q *queueUseCaseWithMetrics) Enqueue(ctx context.Context, id, kind, payload string) error {
	start := time.Now()
	err := q.next.Enqueue(ctx, id, kind, payload)

	status := "success"
	if err != nil {
		status = "error"
	}

	q.metrics.RecordOperation(ctx, "queue", "job_enqueue", status)
	q.metrics.RecordDuration(ctx, "queue", "job_enqueue", time.Since(start), status)

	return err
}

// Run is a long-lived loop; per-job metrics come from the handler, so the
// decorator passes it through.
func (q *queueUseCaseWithMetrics) Run(ctx context.Context, handler Handler) error {
	return q.next.Run(ctx, handler)
}

// ProcessStuck records metrics for stuck-job recovery sweeps.
func (q *queueUseCaseWithMetrics) ProcessStuck(ctx context.Context, handler Handler, limit int) (int, error) {
	start := time.Now()
	processed, err := q.next.ProcessStuck(ctx, handler, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	q.metrics.RecordOperation(ctx, "queue", "stuck_sweep", status)
	q.metrics.RecordDuration(ctx, "queue", "stuck_sweep", time.Since(start), status)

	return processed, err
}

// Stats records metrics for queue introspection calls.
func (q *queueUseCaseWithMetrics) Stats(ctx context.Context) (*domain.Stats, error) {
	start := time.Now()
	stats, err := q.next.Stats(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	q.metrics.RecordOperation(ctx, "queue", "stats", status)
	q.metrics.RecordDuration(ctx, "queue", "stats", time.Since(start), status)

	return stats, err
}

// GetJob records metrics for job lookups.
func (q *queueUseCaseWithMetrics) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	start := time.Now()
	job, err := q.next.GetJob(ctx, id)

	status := "success"
	if err != nil {
		status = "error"
	}

	q.metrics.RecordOperation(ctx, "queue", "job_get", status)
	q.metrics.RecordDuration(ctx, "queue", "job_get", time.Since(start), status)

	return job, err
}

// Prune records metrics for history pruning.
func (q *queueUseCaseWithMetrics) Prune(ctx context.Context) (int64, error) {
	start := time.Now()
	removed, err := q.next.Prune(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	q.metrics.RecordOperation(ctx, "queue", "prune", status)
	q.metrics.RecordDuration(ctx, "queue", "prune", time.Since(start), status)

	return removed, err
}
