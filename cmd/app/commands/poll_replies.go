package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	correlationUseCase "github.com/allisson/outreach/internal/correlation/usecase"
)

// RunPollReplies sweeps recently sent, unanalyzed email jobs for replies the
// webhook missed and prints how many events were matched.
//
// Requirements: Database must be migrated and a messaging provider configured.
func RunPollReplies(
	ctx context.Context,
	useCase correlationUseCase.CorrelationUseCase,
	logger *slog.Logger,
	out io.Writer,
	format string,
) error {
	logger.Info("polling for replies")

	matched, err := useCase.PollReplies(ctx)
	if err != nil {
		return fmt.Errorf("failed to poll replies: %w", err)
	}

	if format == "json" {
		outputPollJSON(out, matched)
	} else {
		fmt.Fprintf(out, "Matched %d reply event(s)\n", matched)
	}

	logger.Info("reply poll completed", slog.Int("matched", matched))

	return nil
}

// outputPollJSON outputs the poll result in JSON format for machine consumption.
func outputPollJSON(out io.Writer, matched int) {
	payload := map[string]interface{}{
		"matched": matched,
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		fmt.Fprintf(out, "failed to marshal JSON: %v\n", err)
	}
}
