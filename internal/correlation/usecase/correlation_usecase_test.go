package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	correlationDomain "github.com/allisson/outreach/internal/correlation/domain"
	"github.com/allisson/outreach/internal/correlation/usecase/mocks"
	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
)

type correlationMocks struct {
	emailJobRepo *mocks.MockEmailJobRepository
	prospectRepo *mocks.MockProspectRepository
	messenger    *mocks.MockMessenger
	analyzer     *mocks.MockReplyAnalyzer
}

func (m *correlationMocks) assertExpectations(t *testing.T) {
	m.emailJobRepo.AssertExpectations(t)
	m.prospectRepo.AssertExpectations(t)
	m.messenger.AssertExpectations(t)
	m.analyzer.AssertExpectations(t)
}

func newTestCorrelation() (CorrelationUseCase, *correlationMocks) {
	m := &correlationMocks{
		emailJobRepo: &mocks.MockEmailJobRepository{},
		prospectRepo: &mocks.MockProspectRepository{},
		messenger:    &mocks.MockMessenger{},
		analyzer:     &mocks.MockReplyAnalyzer{},
	}
	uc := NewCorrelationUseCase(
		m.emailJobRepo,
		m.prospectRepo,
		m.messenger,
		m.analyzer,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		"webhook-secret",
		24*time.Hour,
		168*time.Hour,
		[]string{"ourcorp.com"},
	)
	return uc, m
}

func sentEmailJob(sentAt time.Time) *emailjobDomain.EmailJob {
	return &emailjobDomain.EmailJob{
		ID:             uuid.Must(uuid.NewV7()),
		ProspectID:     uuid.Must(uuid.NewV7()),
		CampaignID:     uuid.Must(uuid.NewV7()),
		Status:         emailjobDomain.EmailJobStatusCompleted,
		Attempts:       1,
		GeneratedEmail: "hello there",
		DraftID:        "draft-1",
		MessageID:      "msg-1",
		ConversationID: "conv-1",
		SentAt:         &sentAt,
	}
}

// TestCorrelationUseCase_HandleInboundEvent tests the HandleInboundEvent method of correlationUseCase.
func TestCorrelationUseCase_HandleInboundEvent(t *testing.T) {
	ctx := context.Background()
	receivedAt := time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)

	t.Run("Success_StoredConversationID", func(t *testing.T) {
		uc, m := newTestCorrelation()
		job := sentEmailJob(receivedAt.Add(-2 * time.Hour))
		event := &correlationDomain.InboundEvent{
			MessageID:      "reply-1",
			ConversationID: "conv-1",
			From:           "jane@prospect.example",
			Body:           "sounds interesting",
			ReceivedAt:     receivedAt,
		}
		m.emailJobRepo.On("GetByConversationID", ctx, "conv-1").Return(job, nil).Once()
		m.emailJobRepo.On("MarkAnalyzed", ctx, job.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		m.analyzer.On("AnalyzeReply", ctx, job, event).Return(nil).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, correlationDomain.MatchTypeStoredID, match.Type)
		assert.True(t, match.Analyzed)
		assert.Equal(t, job, match.EmailJob)
		m.prospectRepo.AssertNotCalled(t, "GetByContactEmail", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Success_StoredCorrelationID", func(t *testing.T) {
		uc, m := newTestCorrelation()
		job := sentEmailJob(receivedAt.Add(-2 * time.Hour))
		job.CorrelationID = "thread-9"
		event := &correlationDomain.InboundEvent{
			ConversationID: "thread-9",
			From:           "jane@prospect.example",
			ReceivedAt:     receivedAt,
		}
		m.emailJobRepo.On("GetByConversationID", ctx, "thread-9").
			Return(nil, emailjobDomain.ErrEmailJobNotFound).Once()
		m.emailJobRepo.On("GetByCorrelationID", ctx, "thread-9").Return(job, nil).Once()
		m.emailJobRepo.On("MarkAnalyzed", ctx, job.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		m.analyzer.On("AnalyzeReply", ctx, job, event).Return(nil).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, correlationDomain.MatchTypeStoredID, match.Type)
		assert.True(t, match.Analyzed)
		m.prospectRepo.AssertNotCalled(t, "GetByContactEmail", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Success_ParticipantWindowMostRecentSendWins", func(t *testing.T) {
		uc, m := newTestCorrelation()
		prospect := &prospectDomain.Prospect{
			ID:           uuid.Must(uuid.NewV7()),
			ContactEmail: "jane@prospect.example",
			Status:       prospectDomain.ProspectStatusDraftCreated,
		}
		far := sentEmailJob(receivedAt.Add(-20 * time.Hour))
		near := sentEmailJob(receivedAt.Add(-2 * time.Hour))
		latest := sentEmailJob(receivedAt.Add(-30 * time.Minute))
		latest.ProspectID = prospect.ID
		event := &correlationDomain.InboundEvent{
			MessageID:  "reply-2",
			From:       "Jane Doe <JANE@Prospect.example>",
			Body:       "tell me more",
			ReceivedAt: receivedAt,
		}
		m.prospectRepo.On("GetByContactEmail", ctx, "jane@prospect.example").Return(prospect, nil).Once()
		m.emailJobRepo.On("ListByProspectSentWithin", ctx, prospect.ID,
			receivedAt.Add(-24*time.Hour), receivedAt.Add(24*time.Hour)).
			Return([]*emailjobDomain.EmailJob{far, latest, near}, nil).Once()
		m.emailJobRepo.On("SetCorrelationID", ctx, latest.ID, "reply-2").Return(nil).Once()
		m.emailJobRepo.On("MarkAnalyzed", ctx, latest.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		m.analyzer.On("AnalyzeReply", ctx, latest, event).Return(nil).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, correlationDomain.MatchTypeParticipantWindow, match.Type)
		assert.True(t, match.Analyzed)
		assert.Equal(t, latest, match.EmailJob)
		assert.Equal(t, "reply-2", latest.CorrelationID)
		m.assertExpectations(t)
	})

	t.Run("Success_ParticipantWindowLatestBeatsNearest", func(t *testing.T) {
		// A send after the reply is still the latest thread; an older send
		// sitting nearer the reply timestamp must not win.
		uc, m := newTestCorrelation()
		prospect := &prospectDomain.Prospect{
			ID:           uuid.Must(uuid.NewV7()),
			ContactEmail: "jane@prospect.example",
			Status:       prospectDomain.ProspectStatusDraftCreated,
		}
		nearest := sentEmailJob(receivedAt.Add(-10 * time.Minute))
		latest := sentEmailJob(receivedAt.Add(3 * time.Hour))
		latest.ProspectID = prospect.ID
		event := &correlationDomain.InboundEvent{
			MessageID:  "reply-5",
			From:       "jane@prospect.example",
			ReceivedAt: receivedAt,
		}
		m.prospectRepo.On("GetByContactEmail", ctx, "jane@prospect.example").Return(prospect, nil).Once()
		m.emailJobRepo.On("ListByProspectSentWithin", ctx, prospect.ID,
			receivedAt.Add(-24*time.Hour), receivedAt.Add(24*time.Hour)).
			Return([]*emailjobDomain.EmailJob{nearest, latest}, nil).Once()
		m.emailJobRepo.On("SetCorrelationID", ctx, latest.ID, "reply-5").Return(nil).Once()
		m.emailJobRepo.On("MarkAnalyzed", ctx, latest.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		m.analyzer.On("AnalyzeReply", ctx, latest, event).Return(nil).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, latest, match.EmailJob)
		m.assertExpectations(t)
	})

	t.Run("Success_ParticipantWindowKeepsExistingCorrelationID", func(t *testing.T) {
		uc, m := newTestCorrelation()
		prospect := &prospectDomain.Prospect{ID: uuid.Must(uuid.NewV7()), ContactEmail: "jane@prospect.example"}
		job := sentEmailJob(receivedAt.Add(-1 * time.Hour))
		job.CorrelationID = "already-set"
		event := &correlationDomain.InboundEvent{
			MessageID:  "reply-3",
			From:       "jane@prospect.example",
			ReceivedAt: receivedAt,
		}
		m.prospectRepo.On("GetByContactEmail", ctx, "jane@prospect.example").Return(prospect, nil).Once()
		m.emailJobRepo.On("ListByProspectSentWithin", ctx, prospect.ID,
			receivedAt.Add(-24*time.Hour), receivedAt.Add(24*time.Hour)).
			Return([]*emailjobDomain.EmailJob{job}, nil).Once()
		m.emailJobRepo.On("MarkAnalyzed", ctx, job.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		m.analyzer.On("AnalyzeReply", ctx, job, event).Return(nil).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, "already-set", job.CorrelationID)
		assert.True(t, match.Analyzed)
		m.emailJobRepo.AssertNotCalled(t, "SetCorrelationID", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Unmatched_SelfDomain", func(t *testing.T) {
		uc, m := newTestCorrelation()
		event := &correlationDomain.InboundEvent{From: "Sales Team <sales@ourcorp.com>", ReceivedAt: receivedAt}

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, correlationDomain.MatchTypeUnmatched, match.Type)
		assert.Equal(t, "self address", match.Reason)
		assert.False(t, match.Matched())
		m.emailJobRepo.AssertNotCalled(t, "GetByConversationID", mock.Anything, mock.Anything)
		m.prospectRepo.AssertNotCalled(t, "GetByContactEmail", mock.Anything, mock.Anything)
	})

	t.Run("Unmatched_OrganizationalLocalPart", func(t *testing.T) {
		uc, m := newTestCorrelation()
		event := &correlationDomain.InboundEvent{From: "noreply@prospect.example", ReceivedAt: receivedAt}

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, correlationDomain.MatchTypeUnmatched, match.Type)
		assert.Equal(t, "self address", match.Reason)
		m.prospectRepo.AssertNotCalled(t, "GetByContactEmail", mock.Anything, mock.Anything)
	})

	t.Run("Unmatched_UnknownSender", func(t *testing.T) {
		uc, m := newTestCorrelation()
		event := &correlationDomain.InboundEvent{From: "stranger@elsewhere.example", ReceivedAt: receivedAt}
		m.prospectRepo.On("GetByContactEmail", ctx, "stranger@elsewhere.example").
			Return(nil, prospectDomain.ErrProspectNotFound).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, correlationDomain.MatchTypeUnmatched, match.Type)
		assert.Equal(t, "unknown sender", match.Reason)
		m.assertExpectations(t)
	})

	t.Run("Unmatched_NoSendWithinWindow", func(t *testing.T) {
		uc, m := newTestCorrelation()
		prospect := &prospectDomain.Prospect{ID: uuid.Must(uuid.NewV7()), ContactEmail: "jane@prospect.example"}
		event := &correlationDomain.InboundEvent{From: "jane@prospect.example", ReceivedAt: receivedAt}
		m.prospectRepo.On("GetByContactEmail", ctx, "jane@prospect.example").Return(prospect, nil).Once()
		m.emailJobRepo.On("ListByProspectSentWithin", ctx, prospect.ID,
			receivedAt.Add(-24*time.Hour), receivedAt.Add(24*time.Hour)).
			Return([]*emailjobDomain.EmailJob{}, nil).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, correlationDomain.MatchTypeUnmatched, match.Type)
		assert.Equal(t, "no send within window", match.Reason)
		m.analyzer.AssertNotCalled(t, "AnalyzeReply", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Redelivery_AnalyzerRunsAtMostOnce", func(t *testing.T) {
		uc, m := newTestCorrelation()
		job := sentEmailJob(receivedAt.Add(-2 * time.Hour))
		event := &correlationDomain.InboundEvent{
			ConversationID: "conv-1",
			From:           "jane@prospect.example",
			ReceivedAt:     receivedAt,
		}
		m.emailJobRepo.On("GetByConversationID", ctx, "conv-1").Return(job, nil).Once()
		m.emailJobRepo.On("MarkAnalyzed", ctx, job.ID, mock.AnythingOfType("time.Time")).Return(false, nil).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, correlationDomain.MatchTypeStoredID, match.Type)
		assert.False(t, match.Analyzed)
		m.analyzer.AssertNotCalled(t, "AnalyzeReply", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Error_AnalyzerFailure", func(t *testing.T) {
		uc, m := newTestCorrelation()
		job := sentEmailJob(receivedAt.Add(-2 * time.Hour))
		event := &correlationDomain.InboundEvent{
			ConversationID: "conv-1",
			From:           "jane@prospect.example",
			ReceivedAt:     receivedAt,
		}
		analyzerErr := errors.New("model unavailable")
		m.emailJobRepo.On("GetByConversationID", ctx, "conv-1").Return(job, nil).Once()
		m.emailJobRepo.On("MarkAnalyzed", ctx, job.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		m.analyzer.On("AnalyzeReply", ctx, job, event).Return(analyzerErr).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		assert.ErrorIs(t, err, analyzerErr)
		require.NotNil(t, match)
		assert.False(t, match.Analyzed)
		m.assertExpectations(t)
	})

	t.Run("Error_MissingSender", func(t *testing.T) {
		uc, _ := newTestCorrelation()

		match, err := uc.HandleInboundEvent(ctx, &correlationDomain.InboundEvent{})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Nil(t, match)
	})

	t.Run("Error_RepositoryFailurePropagates", func(t *testing.T) {
		uc, m := newTestCorrelation()
		event := &correlationDomain.InboundEvent{
			ConversationID: "conv-1",
			From:           "jane@prospect.example",
			ReceivedAt:     receivedAt,
		}
		repoErr := errors.New("connection reset")
		m.emailJobRepo.On("GetByConversationID", ctx, "conv-1").Return(nil, repoErr).Once()

		match, err := uc.HandleInboundEvent(ctx, event)

		assert.ErrorIs(t, err, repoErr)
		assert.Nil(t, match)
		m.assertExpectations(t)
	})
}

// TestCorrelationUseCase_PollReplies tests the PollReplies method of correlationUseCase.
func TestCorrelationUseCase_PollReplies(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_MatchesPolledReply", func(t *testing.T) {
		uc, m := newTestCorrelation()
		sentAt := time.Now().UTC().Add(-3 * time.Hour)
		job := sentEmailJob(sentAt)
		event := &correlationDomain.InboundEvent{
			MessageID:      "reply-1",
			ConversationID: "conv-1",
			From:           "jane@prospect.example",
			ReceivedAt:     sentAt.Add(time.Hour),
		}
		m.emailJobRepo.On("ListSentUnanalyzed", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]*emailjobDomain.EmailJob{job}, nil).Once()
		m.messenger.On("GetRepliesSince", ctx, "conv-1", sentAt).
			Return([]*correlationDomain.InboundEvent{event}, nil).Once()
		m.emailJobRepo.On("GetByConversationID", ctx, "conv-1").Return(job, nil).Once()
		m.emailJobRepo.On("MarkAnalyzed", ctx, job.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		m.analyzer.On("AnalyzeReply", ctx, job, event).Return(nil).Once()

		matched, err := uc.PollReplies(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, matched)
		m.assertExpectations(t)
	})

	t.Run("Success_SkipsJobsWithoutConversation", func(t *testing.T) {
		uc, m := newTestCorrelation()
		sentAt := time.Now().UTC().Add(-3 * time.Hour)
		job := sentEmailJob(sentAt)
		job.ConversationID = ""
		m.emailJobRepo.On("ListSentUnanalyzed", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]*emailjobDomain.EmailJob{job}, nil).Once()

		matched, err := uc.PollReplies(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, matched)
		m.messenger.AssertNotCalled(t, "GetRepliesSince", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Success_ProviderFailureSkipsThread", func(t *testing.T) {
		uc, m := newTestCorrelation()
		sentAt := time.Now().UTC().Add(-3 * time.Hour)
		broken := sentEmailJob(sentAt)
		healthy := sentEmailJob(sentAt)
		healthy.ConversationID = "conv-2"
		event := &correlationDomain.InboundEvent{
			ConversationID: "conv-2",
			From:           "jane@prospect.example",
			ReceivedAt:     sentAt.Add(time.Hour),
		}
		m.emailJobRepo.On("ListSentUnanalyzed", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]*emailjobDomain.EmailJob{broken, healthy}, nil).Once()
		m.messenger.On("GetRepliesSince", ctx, "conv-1", sentAt).
			Return(nil, errors.New("provider timeout")).Once()
		m.messenger.On("GetRepliesSince", ctx, "conv-2", sentAt).
			Return([]*correlationDomain.InboundEvent{event}, nil).Once()
		m.emailJobRepo.On("GetByConversationID", ctx, "conv-2").Return(healthy, nil).Once()
		m.emailJobRepo.On("MarkAnalyzed", ctx, healthy.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		m.analyzer.On("AnalyzeReply", ctx, healthy, event).Return(nil).Once()

		matched, err := uc.PollReplies(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, matched)
		m.assertExpectations(t)
	})

	t.Run("Success_UnmatchedReplyNotCounted", func(t *testing.T) {
		uc, m := newTestCorrelation()
		sentAt := time.Now().UTC().Add(-3 * time.Hour)
		job := sentEmailJob(sentAt)
		event := &correlationDomain.InboundEvent{
			ConversationID: "conv-1",
			From:           "noreply@prospect.example",
			ReceivedAt:     sentAt.Add(time.Hour),
		}
		m.emailJobRepo.On("ListSentUnanalyzed", ctx, mock.AnythingOfType("time.Time"), 100).
			Return([]*emailjobDomain.EmailJob{job}, nil).Once()
		m.messenger.On("GetRepliesSince", ctx, "conv-1", sentAt).
			Return([]*correlationDomain.InboundEvent{event}, nil).Once()

		matched, err := uc.PollReplies(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, matched)
		m.assertExpectations(t)
	})

	t.Run("Error_ListFailure", func(t *testing.T) {
		uc, m := newTestCorrelation()
		repoErr := errors.New("connection reset")
		m.emailJobRepo.On("ListSentUnanalyzed", ctx, mock.AnythingOfType("time.Time"), 100).
			Return(nil, repoErr).Once()

		matched, err := uc.PollReplies(ctx)

		assert.ErrorIs(t, err, repoErr)
		assert.Equal(t, 0, matched)
		m.assertExpectations(t)
	})
}
