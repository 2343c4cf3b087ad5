package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/outreach/internal/classify"
	"github.com/allisson/outreach/internal/database"
	apperrors "github.com/allisson/outreach/internal/errors"
	"github.com/allisson/outreach/internal/queue/domain"
)

// maxRetryJitter bounds the random jitter added to queue-level backoff.
const maxRetryJitter = 2 * time.Second

// queueUseCase implements the QueueUseCase interface.
type queueUseCase struct {
	txManager      database.TxManager
	jobRepo        JobRepository
	logger         *slog.Logger
	concurrency    int
	pollInterval   time.Duration
	maxAttempts    int
	retryBaseDelay time.Duration
	historyLimit   int
	stuckGrace     time.Duration
	fallbackPacing time.Duration

	// sleep is replaceable so tests do not wait out real pacing delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewQueueUseCase creates a new queue use case instance.
func NewQueueUseCase(
	txManager database.TxManager,
	jobRepo JobRepository,
	logger *slog.Logger,
	concurrency int,
	pollInterval time.Duration,
	maxAttempts int,
	retryBaseDelay time.Duration,
	stuckGrace time.Duration,
	fallbackPacing time.Duration,
	historyLimit int,
) QueueUseCase {
	return &queueUseCase{
		txManager:      txManager,
		jobRepo:        jobRepo,
		logger:         logger,
		concurrency:    concurrency,
		pollInterval:   pollInterval,
		maxAttempts:    maxAttempts,
		retryBaseDelay: retryBaseDelay,
		stuckGrace:     stuckGrace,
		fallbackPacing: fallbackPacing,
		historyLimit:   historyLimit,
		sleep:          sleepContext,
	}
}

// Enqueue adds a job keyed by id. The repository insert ignores duplicate ids,
// so callers can enqueue the same logical work repeatedly without creating
// duplicate jobs or resurrecting completed ones.
func (q *queueUseCase) Enqueue(ctx context.Context, id, kind, payload string) error {
	if id == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "queue job id is required")
	}

	job := &domain.Job{
		ID:            id,
		Kind:          kind,
		Payload:       payload,
		Status:        domain.JobStatusWaiting,
		NextAttemptAt: time.Now().UTC(),
	}
	return q.jobRepo.Insert(ctx, job)
}

// Run polls for due jobs and dispatches them to handler on a worker pool
// bounded by the configured concurrency. It drains in-flight handlers and
// returns when ctx is cancelled.
func (q *queueUseCase) Run(ctx context.Context, handler Handler) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(q.concurrency)

	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-groupCtx.Done():
			return group.Wait()
		case <-ticker.C:
		}

		// Claim until the queue is drained, then wait for the next tick.
		for {
			job, err := q.claim(groupCtx)
			if err != nil {
				if !errors.Is(err, domain.ErrJobNotFound) && !errors.Is(err, context.Canceled) {
					q.logger.Error("failed to claim queue job", slog.Any("error", err))
				}
				break
			}

			group.Go(func() error {
				q.dispatch(groupCtx, job, handler)
				return nil
			})
		}
	}
}

// claim claims the next due job in its own transaction so the row lock is
// released before the handler runs.
func (q *queueUseCase) claim(ctx context.Context) (*domain.Job, error) {
	var job *domain.Job
	err := q.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		job, txErr = q.jobRepo.ClaimNext(txCtx, time.Now().UTC())
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// dispatch runs the handler for one claimed job and settles the outcome.
func (q *queueUseCase) dispatch(ctx context.Context, job *domain.Job, handler Handler) {
	logger := q.logger.With(
		slog.String("job_id", job.ID),
		slog.String("kind", job.Kind),
		slog.Int("attempt", job.Attempts),
	)

	err := handler(ctx, job)
	if err == nil {
		if markErr := q.jobRepo.MarkCompleted(ctx, job.ID); markErr != nil {
			logger.Error("failed to mark queue job completed", slog.Any("error", markErr))
		}
		return
	}

	q.settleFailure(ctx, job, err, logger)
}

// settleFailure reschedules or permanently fails a job after a handler error.
// Non-retryable errors fail immediately regardless of remaining attempts.
func (q *queueUseCase) settleFailure(ctx context.Context, job *domain.Job, err error, logger *slog.Logger) {
	ce := classify.ClassifyError(err)

	if ce.Retryable && job.Attempts < q.maxAttempts {
		delay := q.backoff(job.Attempts)
		nextAttempt := time.Now().UTC().Add(delay)
		logger.Warn("queue job failed, rescheduling",
			slog.String("error_type", string(ce.Type)),
			slog.Any("error", err),
			slog.Duration("delay", delay),
		)
		if schedErr := q.jobRepo.Reschedule(ctx, job.ID, err.Error(), nextAttempt); schedErr != nil {
			logger.Error("failed to reschedule queue job", slog.Any("error", schedErr))
		}
		return
	}

	logger.Error("queue job permanently failed",
		slog.String("error_type", string(ce.Type)),
		slog.Any("error", err),
	)
	if failErr := q.jobRepo.MarkFailed(ctx, job.ID, err.Error()); failErr != nil {
		logger.Error("failed to mark queue job failed", slog.Any("error", failErr))
	}
}

// backoff computes the jittered exponential delay before the next attempt:
// base × 2^(attempts-1) plus up to maxRetryJitter of random jitter.
func (q *queueUseCase) backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	base := q.retryBaseDelay << uint(attempts-1)
	jitter := time.Duration(rand.Int63n(int64(maxRetryJitter)))
	return base + jitter
}

// ProcessStuck claims jobs that sat in waiting past the grace period and runs
// them inline with handler, sleeping fallbackPacing between jobs so the
// sequential sweep does not overload the collaborators. The per-id claim
// guard means a worker that wakes up mid-sweep cannot run the same job twice.
func (q *queueUseCase) ProcessStuck(ctx context.Context, handler Handler, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-q.stuckGrace)

	stuck, err := q.jobRepo.ListStuckWaiting(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, candidate := range stuck {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		if processed > 0 && q.fallbackPacing > 0 {
			if err := q.sleep(ctx, q.fallbackPacing); err != nil {
				return processed, err
			}
		}

		job, err := q.jobRepo.ClaimByID(ctx, candidate.ID)
		if err != nil {
			// Lost the claim race to a worker.
			if errors.Is(err, domain.ErrJobNotFound) {
				continue
			}
			return processed, err
		}

		q.logger.Warn("processing stuck queue job inline",
			slog.String("job_id", job.ID),
			slog.String("kind", job.Kind),
		)
		q.dispatch(ctx, job, handler)
		processed++
	}
	return processed, nil
}

// Stats returns the queue's per-status counters.
func (q *queueUseCase) Stats(ctx context.Context) (*domain.Stats, error) {
	return q.jobRepo.Stats(ctx)
}

// GetJob retrieves one job by its idempotency key.
func (q *queueUseCase) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	return q.jobRepo.GetByID(ctx, id)
}

// Prune drops completed jobs beyond the retained history limit.
func (q *queueUseCase) Prune(ctx context.Context) (int64, error) {
	return q.jobRepo.PruneCompleted(ctx, q.historyLimit)
}

// sleepContext waits for the duration or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
