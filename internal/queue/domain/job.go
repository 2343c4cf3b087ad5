// Package domain defines the durable queue job record and its statuses.
package domain

import (
	"time"

	"github.com/allisson/outreach/internal/errors"
)

// JobStatus represents the lifecycle state of a queued job.
type JobStatus string

const (
	// JobStatusWaiting means the job is ready for (or awaiting) processing.
	JobStatusWaiting JobStatus = "waiting"
	// JobStatusActive means a worker currently holds the job.
	JobStatusActive JobStatus = "active"
	// JobStatusCompleted means the job finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed means the job exhausted its attempts.
	JobStatusFailed JobStatus = "failed"
)

// Job is a durable task record. The ID is caller-supplied and is the
// idempotency key: enqueueing an existing non-terminal id is a no-op, and
// the waiting -> active claim is guarded by id so the same job is never
// processed concurrently.
type Job struct {
	ID            string
	Kind          string
	Payload       string
	Status        JobStatus
	Attempts      int
	LastError     *string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Stats holds the introspectable queue counters.
type Stats struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// ErrJobNotFound indicates the requested queue job does not exist.
var ErrJobNotFound = errors.Wrap(errors.ErrNotFound, "queue job not found")

// Terminal reports whether the status is terminal.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}
