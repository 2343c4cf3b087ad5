package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/outreach/internal/errors"
)

func newJob(status EmailJobStatus) *EmailJob {
	return &EmailJob{
		ID:         uuid.Must(uuid.NewV7()),
		ProspectID: uuid.Must(uuid.NewV7()),
		CampaignID: uuid.Must(uuid.NewV7()),
		Status:     status,
	}
}

func TestEmailJobStatus_Terminal(t *testing.T) {
	assert.True(t, EmailJobStatusCompleted.Terminal())
	assert.True(t, EmailJobStatusFailed.Terminal())
	assert.False(t, EmailJobStatusQueued.Terminal())
	assert.False(t, EmailJobStatusProcessing.Terminal())
	assert.False(t, EmailJobStatusRetrying.Terminal())
}

func TestTransition(t *testing.T) {
	j := newJob(EmailJobStatusQueued)
	require.NoError(t, j.Transition(EmailJobStatusProcessing))
	require.NoError(t, j.Transition(EmailJobStatusCompleted))

	// completed is terminal
	err := j.Transition(EmailJobStatusProcessing)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
	assert.Equal(t, EmailJobStatusCompleted, j.Status)
}

func TestTransition_NoAutomaticFailedToQueued(t *testing.T) {
	j := newJob(EmailJobStatusFailed)
	err := j.Transition(EmailJobStatusQueued)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

func TestStartAttempt(t *testing.T) {
	j := newJob(EmailJobStatusQueued)

	require.NoError(t, j.StartAttempt())
	assert.Equal(t, EmailJobStatusProcessing, j.Status)
	assert.Equal(t, 1, j.Attempts)

	// processing -> processing is illegal, attempts must not advance
	err := j.StartAttempt()
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
	assert.Equal(t, 1, j.Attempts)
}

func TestRecordFailure(t *testing.T) {
	j := newJob(EmailJobStatusQueued)
	require.NoError(t, j.StartAttempt())

	// below the ceiling the job is scheduled for another automatic attempt
	require.NoError(t, j.RecordFailure("send failed", 3))
	assert.Equal(t, EmailJobStatusRetrying, j.Status)
	require.NotNil(t, j.LastError)
	assert.Equal(t, "send failed", *j.LastError)

	require.NoError(t, j.Transition(EmailJobStatusProcessing))
	j.Attempts = 3

	// at the ceiling the job is permanently failed
	require.NoError(t, j.RecordFailure("send failed again", 3))
	assert.Equal(t, EmailJobStatusFailed, j.Status)
}

func TestRequeueForRetry(t *testing.T) {
	j := newJob(EmailJobStatusFailed)
	j.Attempts = 2

	require.NoError(t, j.RequeueForRetry(3))
	assert.Equal(t, EmailJobStatusQueued, j.Status)
}

func TestRequeueForRetry_AttemptsExhausted(t *testing.T) {
	j := newJob(EmailJobStatusFailed)
	j.Attempts = 3

	err := j.RequeueForRetry(3)
	assert.True(t, errors.Is(err, ErrAttemptsExhausted))
	assert.Equal(t, EmailJobStatusFailed, j.Status)
}

func TestRequeueForRetry_NotFailed(t *testing.T) {
	j := newJob(EmailJobStatusProcessing)
	err := j.RequeueForRetry(3)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

func TestMarkSentAndAnalyzed(t *testing.T) {
	j := newJob(EmailJobStatusProcessing)
	sentAt := time.Now()

	j.MarkSent("msg-1", "conv-1", sentAt)
	assert.Equal(t, "msg-1", j.MessageID)
	assert.Equal(t, "conv-1", j.ConversationID)
	require.NotNil(t, j.SentAt)
	assert.Equal(t, sentAt, *j.SentAt)

	assert.False(t, j.Analyzed())
	now := time.Now()
	j.AnalyzedAt = &now
	assert.True(t, j.Analyzed())
}
