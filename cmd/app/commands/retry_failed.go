package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	pipelineUseCase "github.com/allisson/outreach/internal/pipeline/usecase"
)

// RunRetryFailed runs the three idempotent retry sweeps: re-queue failed
// email jobs below the attempt ceiling, reset failed-but-retryable prospects
// and create drafts for completed generations that never got one.
//
// Requirements: Database must be migrated and accessible.
func RunRetryFailed(
	ctx context.Context,
	useCase pipelineUseCase.PipelineUseCase,
	logger *slog.Logger,
	out io.Writer,
	format string,
) error {
	logger.Info("retrying failed work")

	result, err := useCase.RetryFailedJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to retry failed jobs: %w", err)
	}

	if format == "json" {
		outputRetryJSON(out, result)
	} else {
		outputRetryText(out, result)
	}

	logger.Info("retry sweeps completed",
		slog.Int("requeued_email_jobs", result.RequeuedEmailJobs),
		slog.Int("reset_prospects", result.ResetProspects),
		slog.Int("drafts_created", result.DraftsCreated),
		slog.Int("errors", len(result.Errors)),
	)

	return nil
}

// outputRetryText outputs the sweep summary in human-readable text format.
func outputRetryText(out io.Writer, result *pipelineUseCase.RetryResult) {
	fmt.Fprintf(out, "Requeued %d email job(s), reset %d prospect(s), created %d draft(s)\n",
		result.RequeuedEmailJobs, result.ResetProspects, result.DraftsCreated)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
}

// outputRetryJSON outputs the sweep summary in JSON format for machine consumption.
func outputRetryJSON(out io.Writer, result *pipelineUseCase.RetryResult) {
	payload := map[string]interface{}{
		"requeued_email_jobs": result.RequeuedEmailJobs,
		"reset_prospects":     result.ResetProspects,
		"drafts_created":      result.DraftsCreated,
		"errors":              result.Errors,
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		fmt.Fprintf(out, "failed to marshal JSON: %v\n", err)
	}
}
