package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/outreach/internal/errors"
	pipelineMocks "github.com/allisson/outreach/internal/pipeline/http/mocks"
	pipelineUseCase "github.com/allisson/outreach/internal/pipeline/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunProcessCampaign(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()
	campaignID := uuid.Must(uuid.NewV7())

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &pipelineMocks.MockPipelineUseCase{}
		mockUseCase.On("ProcessCampaign", ctx, campaignID).Return(&pipelineUseCase.Result{
			ProspectIDs: []uuid.UUID{uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())},
			Processed:   2,
			Errors:      []string{},
		}, nil)

		var out bytes.Buffer
		err := RunProcessCampaign(ctx, mockUseCase, logger, &out, campaignID.String(), "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "processed 2 of 2 prospect(s)")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &pipelineMocks.MockPipelineUseCase{}
		mockUseCase.On("ProcessCampaign", ctx, campaignID).Return(&pipelineUseCase.Result{
			ProspectIDs: []uuid.UUID{uuid.Must(uuid.NewV7())},
			Processed:   0,
			Errors:      []string{"prospect failed: scrape timeout"},
		}, nil)

		var out bytes.Buffer
		err := RunProcessCampaign(ctx, mockUseCase, logger, &out, campaignID.String(), "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"processed": 0`)
		require.Contains(t, out.String(), "scrape timeout")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-campaign-id", func(t *testing.T) {
		mockUseCase := &pipelineMocks.MockPipelineUseCase{}

		err := RunProcessCampaign(ctx, mockUseCase, logger, &bytes.Buffer{}, "not-a-uuid", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid campaign id")
		mockUseCase.AssertNotCalled(t, "ProcessCampaign")
	})

	t.Run("usecase-error", func(t *testing.T) {
		mockUseCase := &pipelineMocks.MockPipelineUseCase{}
		mockUseCase.On("ProcessCampaign", ctx, campaignID).Return(nil, apperrors.ErrNotFound)

		err := RunProcessCampaign(ctx, mockUseCase, logger, &bytes.Buffer{}, campaignID.String(), "text")

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		mockUseCase.AssertExpectations(t)
	})
}
