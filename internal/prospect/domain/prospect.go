// Package domain defines the core prospect domain entities and the prospect
// stage state machine.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/classify"
	"github.com/allisson/outreach/internal/errors"
)

// ProspectStatus represents how far a prospect has progressed through the
// pipeline stages.
type ProspectStatus string

const (
	ProspectStatusPending        ProspectStatus = "pending"
	ProspectStatusScraped        ProspectStatus = "scraped"
	ProspectStatusAnalyzed       ProspectStatus = "analyzed"
	ProspectStatusEmailGenerated ProspectStatus = "email_generated"
	ProspectStatusDraftCreated   ProspectStatus = "draft_created"
	ProspectStatusFailed         ProspectStatus = "failed"
)

// Stage identifies one pipeline stage acting on a prospect.
type Stage string

const (
	StageScrape   Stage = "scrape"
	StageAnalyze  Stage = "analyze"
	StageGenerate Stage = "generate"
	StageDraft    Stage = "draft"
)

// StageError records the classified failure that moved a prospect to failed.
type StageError struct {
	Stage      Stage
	Type       classify.ErrorType
	Message    string
	Retryable  bool
	RetryCount int
	OccurredAt time.Time
}

// Prospect represents a target business/contact pursued in one or more campaigns.
type Prospect struct {
	ID           uuid.UUID
	Website      string
	ContactEmail string
	CompanyName  string
	Status       ProspectStatus
	// RetryCount only increases; a retry sweep never resets it.
	RetryCount int
	LastError  *StageError
	// ScrapedData and Analysis are opaque collaborator outputs carried
	// between stages.
	ScrapedData string
	Analysis    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Domain-specific errors for prospect operations.
var (
	// ErrProspectNotFound indicates the requested prospect does not exist.
	ErrProspectNotFound = errors.Wrap(errors.ErrNotFound, "prospect not found")

	// ErrProspectAlreadyExists indicates a prospect with the same website
	// already exists.
	ErrProspectAlreadyExists = errors.Wrap(errors.ErrConflict, "prospect already exists")
)

// stageFrom maps each stage to the status a prospect must hold before the
// stage may run.
var stageFrom = map[Stage]ProspectStatus{
	StageScrape:   ProspectStatusPending,
	StageAnalyze:  ProspectStatusScraped,
	StageGenerate: ProspectStatusAnalyzed,
	StageDraft:    ProspectStatusEmailGenerated,
}

// stageTo maps each stage to the status reached on success.
var stageTo = map[Stage]ProspectStatus{
	StageScrape:   ProspectStatusScraped,
	StageAnalyze:  ProspectStatusAnalyzed,
	StageGenerate: ProspectStatusEmailGenerated,
	StageDraft:    ProspectStatusDraftCreated,
}

// Advance is the pure transition function for a stage success: given the
// current status and the completed stage it returns the new status, or
// ErrInvalidTransition when the stage was not legal from that status.
func Advance(status ProspectStatus, stage Stage) (ProspectStatus, error) {
	from, ok := stageFrom[stage]
	if !ok {
		return status, errors.Wrapf(errors.ErrInvalidTransition, "unknown stage %q", stage)
	}
	if status != from {
		return status, errors.Wrapf(errors.ErrInvalidTransition, "stage %s requires status %s, have %s", stage, from, status)
	}
	return stageTo[stage], nil
}

// StageInputStatus returns the status required before the given stage runs.
func StageInputStatus(stage Stage) (ProspectStatus, bool) {
	s, ok := stageFrom[stage]
	return s, ok
}

// ApplyStageSuccess advances the prospect after a successful stage.
func (p *Prospect) ApplyStageSuccess(stage Stage) error {
	next, err := Advance(p.Status, stage)
	if err != nil {
		return err
	}
	p.Status = next
	return nil
}

// ApplyStageFailure moves the prospect to failed, records the classified
// error and bumps the retry counter. Failing is legal from any non-failed
// status; double-failing is a contract violation.
func (p *Prospect) ApplyStageFailure(stage Stage, ce *classify.ClassifiedError, now time.Time) error {
	if p.Status == ProspectStatusFailed {
		return errors.Wrapf(errors.ErrInvalidTransition, "prospect %s already failed", p.ID)
	}
	p.RetryCount++
	p.Status = ProspectStatusFailed
	p.LastError = &StageError{
		Stage:      stage,
		Type:       ce.Type,
		Message:    ce.Message,
		Retryable:  ce.Retryable,
		RetryCount: p.RetryCount,
		OccurredAt: now,
	}
	return nil
}

// ResetForRetry moves a failed prospect back to the status preceding the
// stage that failed, so completed stages are not replayed. RetryCount and
// LastError are preserved until the retried stage succeeds or fails again.
func (p *Prospect) ResetForRetry() error {
	if p.Status != ProspectStatusFailed {
		return errors.Wrapf(errors.ErrInvalidTransition, "prospect %s is not failed", p.ID)
	}
	if p.LastError == nil {
		return errors.Wrapf(errors.ErrInvalidTransition, "prospect %s failed without a recorded error", p.ID)
	}
	from, ok := stageFrom[p.LastError.Stage]
	if !ok {
		return errors.Wrapf(errors.ErrInvalidTransition, "unknown failed stage %q", p.LastError.Stage)
	}
	p.Status = from
	return nil
}

// Retryable reports whether a failed prospect may be re-attempted by the
// retry sweep: the recorded error must be retryable.
func (p *Prospect) Retryable() bool {
	return p.Status == ProspectStatusFailed && p.LastError != nil && p.LastError.Retryable
}
