// Package usecase implements the durable job queue: idempotent enqueue, a
// polling worker pool, retry scheduling and stuck-job recovery.
package usecase

import (
	"context"
	"time"

	"github.com/allisson/outreach/internal/queue/domain"
)

// JobRepository defines the interface for queue job persistence operations.
type JobRepository interface {
	Insert(ctx context.Context, job *domain.Job) error
	ClaimNext(ctx context.Context, now time.Time) (*domain.Job, error)
	ClaimByID(ctx context.Context, id string) (*domain.Job, error)
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	Reschedule(ctx context.Context, id, errMsg string, nextAttemptAt time.Time) error
	Stats(ctx context.Context) (*domain.Stats, error)
	ListStuckWaiting(ctx context.Context, dueBefore time.Time, limit int) ([]*domain.Job, error)
	PruneCompleted(ctx context.Context, keep int) (int64, error)
}

// Handler processes one claimed job. A nil return completes the job; an error
// reschedules or fails it depending on the error's classification and the
// job's remaining attempts.
type Handler func(ctx context.Context, job *domain.Job) error

// QueueUseCase defines the interface for the durable job queue.
type QueueUseCase interface {
	// Enqueue adds a job keyed by id. Enqueueing an id that already exists,
	// in any status, is a no-op.
	Enqueue(ctx context.Context, id, kind, payload string) error
	// Run polls for due jobs and dispatches them to handler on a bounded
	// worker pool until ctx is cancelled.
	Run(ctx context.Context, handler Handler) error
	// ProcessStuck claims jobs that sat in waiting past the grace period and
	// runs them inline with handler. Returns how many jobs were processed.
	ProcessStuck(ctx context.Context, handler Handler, limit int) (int, error)
	// Stats returns the queue's per-status counters.
	Stats(ctx context.Context) (*domain.Stats, error)
	// GetJob retrieves one job by its idempotency key.
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	// Prune drops completed jobs beyond the retained history limit.
	Prune(ctx context.Context) (int64, error)
}
