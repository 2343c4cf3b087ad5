package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/outreach/internal/app"
	"github.com/allisson/outreach/internal/config"
)

// pruneInterval is how often the worker drops completed queue jobs beyond
// the retained history limit.
const pruneInterval = time.Minute

// RunWorker starts the background worker: the durable queue worker pool
// processing email jobs, the periodic reply poller and completed-job pruning.
// Blocks until receiving SIGINT/SIGTERM; in-flight handlers are drained
// before returning.
func RunWorker(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	queue, err := container.QueueUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize queue use case: %w", err)
	}

	pipeline, err := container.PipelineUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline use case: %w", err)
	}

	correlation, err := container.CorrelationUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize correlation use case: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	// Queue worker pool processing email jobs
	group.Go(func() error {
		return queue.Run(ctx, pipeline.HandleEmailJob)
	})

	// Periodic reply poller catching webhook deliveries that were missed
	group.Go(func() error {
		ticker := time.NewTicker(cfg.CorrelationPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				matched, err := correlation.PollReplies(ctx)
				if err != nil {
					logger.Error("reply poll failed", slog.Any("error", err))
					continue
				}
				if matched > 0 {
					logger.Info("reply poll matched events", slog.Int("matched", matched))
				}
			}
		}
	})

	// Bounded completed-job history
	group.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				pruned, err := queue.Prune(ctx)
				if err != nil {
					logger.Error("queue prune failed", slog.Any("error", err))
					continue
				}
				if pruned > 0 {
					logger.Info("pruned completed queue jobs", slog.Int64("pruned", pruned))
				}
			}
		}
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("worker error: %w", err)
	}

	logger.Info("worker stopped")
	return nil
}
