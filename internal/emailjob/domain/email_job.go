// Package domain defines the email job entity and its processing state machine.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/errors"
)

// EmailJobStatus represents the processing status of an email job.
type EmailJobStatus string

const (
	EmailJobStatusQueued     EmailJobStatus = "queued"
	EmailJobStatusProcessing EmailJobStatus = "processing"
	EmailJobStatusCompleted  EmailJobStatus = "completed"
	EmailJobStatusFailed     EmailJobStatus = "failed"
	EmailJobStatusRetrying   EmailJobStatus = "retrying"
)

// EmailJob tracks one prospect's progress through generation and sending
// within one campaign. At most one non-terminal job exists per
// (prospect, campaign) pair.
type EmailJob struct {
	ID         uuid.UUID
	ProspectID uuid.UUID
	CampaignID uuid.UUID
	Status     EmailJobStatus
	Attempts   int
	LastError  *string

	// GeneratedEmail is the opaque generated message content.
	GeneratedEmail string
	// DraftID is the messaging provider's draft handle, set on draft creation.
	DraftID string

	// Send outcome from the messaging provider.
	MessageID      string
	ConversationID string
	SentAt         *time.Time

	// Response correlation state.
	CorrelationID string
	AnalyzedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for email job operations.
var (
	// ErrEmailJobNotFound indicates the requested email job does not exist.
	ErrEmailJobNotFound = errors.Wrap(errors.ErrNotFound, "email job not found")

	// ErrEmailJobExists indicates a non-terminal job already exists for the
	// (prospect, campaign) pair.
	ErrEmailJobExists = errors.Wrap(errors.ErrConflict, "email job already exists for prospect and campaign")

	// ErrAttemptsExhausted indicates the job hit its attempt ceiling and may
	// not be re-queued.
	ErrAttemptsExhausted = errors.Wrap(errors.ErrInvalidInput, "email job attempts exhausted")
)

// Terminal reports whether the status is terminal (no further processing).
func (s EmailJobStatus) Terminal() bool {
	return s == EmailJobStatusCompleted || s == EmailJobStatusFailed
}

// legalTransitions enumerates the allowed job status changes. The
// failed -> queued edge is deliberately absent: it only happens via
// RequeueForRetry, never through Transition.
var legalTransitions = map[EmailJobStatus][]EmailJobStatus{
	EmailJobStatusQueued:     {EmailJobStatusProcessing},
	EmailJobStatusProcessing: {EmailJobStatusCompleted, EmailJobStatusFailed, EmailJobStatusRetrying},
	EmailJobStatusRetrying:   {EmailJobStatusProcessing, EmailJobStatusFailed},
	EmailJobStatusCompleted:  {},
	EmailJobStatusFailed:     {},
}

// Transition validates and applies a status change. An illegal transition
// returns ErrInvalidTransition and leaves the job untouched.
func (j *EmailJob) Transition(to EmailJobStatus) error {
	for _, next := range legalTransitions[j.Status] {
		if next == to {
			j.Status = to
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInvalidTransition, "email job %s: %s -> %s", j.ID, j.Status, to)
}

// StartAttempt moves the job into processing and consumes one attempt.
func (j *EmailJob) StartAttempt() error {
	if err := j.Transition(EmailJobStatusProcessing); err != nil {
		return err
	}
	j.Attempts++
	return nil
}

// RecordFailure applies a processing failure: the job moves to retrying while
// attempts remain below maxAttempts, otherwise to failed.
func (j *EmailJob) RecordFailure(errMsg string, maxAttempts int) error {
	next := EmailJobStatusRetrying
	if j.Attempts >= maxAttempts {
		next = EmailJobStatusFailed
	}
	if err := j.Transition(next); err != nil {
		return err
	}
	j.LastError = &errMsg
	return nil
}

// RequeueForRetry is the explicit retry operation: it moves a failed job back
// to queued, provided the attempt ceiling has not been reached. This is the
// only legal failed -> queued path and is never taken automatically.
func (j *EmailJob) RequeueForRetry(maxAttempts int) error {
	if j.Status != EmailJobStatusFailed {
		return errors.Wrapf(errors.ErrInvalidTransition, "email job %s is not failed", j.ID)
	}
	if j.Attempts >= maxAttempts {
		return errors.Wrapf(ErrAttemptsExhausted, "email job %s has %d attempts", j.ID, j.Attempts)
	}
	j.Status = EmailJobStatusQueued
	return nil
}

// SendResult is the messaging provider's outcome for a sent draft.
type SendResult struct {
	MessageID      string
	ConversationID string
	SentAt         time.Time
}

// MarkSent records the messaging provider's send outcome.
func (j *EmailJob) MarkSent(messageID, conversationID string, sentAt time.Time) {
	j.MessageID = messageID
	j.ConversationID = conversationID
	j.SentAt = &sentAt
}

// Analyzed reports whether the job's response was already analyzed; used to
// make correlation idempotent against webhook/poll re-delivery.
func (j *EmailJob) Analyzed() bool {
	return j.AnalyzedAt != nil
}
