// Package domain defines the bulk import job entity and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/errors"
)

// ImportJobStatus represents the status of a bulk import job.
type ImportJobStatus string

const (
	ImportJobStatusPending    ImportJobStatus = "pending"
	ImportJobStatusProcessing ImportJobStatus = "processing"
	ImportJobStatusCompleted  ImportJobStatus = "completed"
	ImportJobStatusFailed     ImportJobStatus = "failed"
)

// maxRecordedErrors bounds the per-row error list kept on the job so a large
// broken file cannot grow the record without bound.
const maxRecordedErrors = 50

// ImportJob tracks one bulk prospect import, including per-row outcome counters.
type ImportJob struct {
	ID                  uuid.UUID
	CampaignID          uuid.UUID
	Status              ImportJobStatus
	TotalProspects      int
	SuccessfulProspects int
	FailedProspects     int
	Errors              []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ErrImportJobNotFound indicates the requested import job does not exist.
var ErrImportJobNotFound = errors.Wrap(errors.ErrNotFound, "import job not found")

// legalTransitions enumerates the allowed import job status changes.
var legalTransitions = map[ImportJobStatus][]ImportJobStatus{
	ImportJobStatusPending:    {ImportJobStatusProcessing},
	ImportJobStatusProcessing: {ImportJobStatusCompleted, ImportJobStatusFailed},
	ImportJobStatusCompleted:  {},
	ImportJobStatusFailed:     {},
}

// Transition validates and applies a status change.
func (j *ImportJob) Transition(to ImportJobStatus) error {
	for _, next := range legalTransitions[j.Status] {
		if next == to {
			j.Status = to
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInvalidTransition, "import job %s: %s -> %s", j.ID, j.Status, to)
}

// RecordSuccess counts one successfully imported prospect.
func (j *ImportJob) RecordSuccess() {
	j.SuccessfulProspects++
}

// RecordFailure counts one failed row, keeping at most maxRecordedErrors messages.
func (j *ImportJob) RecordFailure(msg string) {
	j.FailedProspects++
	if len(j.Errors) < maxRecordedErrors {
		j.Errors = append(j.Errors, msg)
	}
}
