package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	pipelineUseCase "github.com/allisson/outreach/internal/pipeline/usecase"
)

// RunProcessCampaign runs the staged pipeline over a campaign's eligible
// prospects and prints the run summary. Individual prospect failures are
// reported inside the summary, not as a command error.
//
// Requirements: Database must be migrated and the campaign must be active.
func RunProcessCampaign(
	ctx context.Context,
	useCase pipelineUseCase.PipelineUseCase,
	logger *slog.Logger,
	out io.Writer,
	campaignIDStr string,
	format string,
) error {
	campaignID, err := uuid.Parse(campaignIDStr)
	if err != nil {
		return fmt.Errorf("invalid campaign id %q: %w", campaignIDStr, err)
	}

	logger.Info("processing campaign", slog.String("campaign_id", campaignID.String()))

	result, err := useCase.ProcessCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to process campaign: %w", err)
	}

	if format == "json" {
		outputProcessJSON(out, campaignID, result)
	} else {
		outputProcessText(out, campaignID, result)
	}

	logger.Info("campaign processed",
		slog.String("campaign_id", campaignID.String()),
		slog.Int("processed", result.Processed),
		slog.Int("errors", len(result.Errors)),
	)

	return nil
}

// outputProcessText outputs the run summary in human-readable text format.
func outputProcessText(out io.Writer, campaignID uuid.UUID, result *pipelineUseCase.Result) {
	fmt.Fprintf(out, "Campaign %s: processed %d of %d prospect(s)\n",
		campaignID, result.Processed, len(result.ProspectIDs))
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
}

// outputProcessJSON outputs the run summary in JSON format for machine consumption.
func outputProcessJSON(out io.Writer, campaignID uuid.UUID, result *pipelineUseCase.Result) {
	payload := map[string]interface{}{
		"campaign_id": campaignID.String(),
		"eligible":    len(result.ProspectIDs),
		"processed":   result.Processed,
		"errors":      result.Errors,
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		fmt.Fprintf(out, "failed to marshal JSON: %v\n", err)
	}
}
