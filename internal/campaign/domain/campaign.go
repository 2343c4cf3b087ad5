// Package domain defines the core campaign domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/errors"
)

// CampaignStatus represents the lifecycle status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Campaign represents a named outreach effort with shared messaging context.
// Content and context fields are opaque to the pipeline core.
type Campaign struct {
	ID        uuid.UUID
	Name      string
	Status    CampaignStatus
	Context   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for campaign operations.
var (
	// ErrCampaignNotFound indicates the requested campaign does not exist.
	ErrCampaignNotFound = errors.Wrap(errors.ErrNotFound, "campaign not found")

	// ErrCampaignNotActive indicates the campaign is not in a processable state.
	ErrCampaignNotActive = errors.Wrap(errors.ErrInvalidInput, "campaign is not active")
)

// legalTransitions enumerates the allowed campaign status changes.
var legalTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusDraft:     {CampaignStatusActive},
	CampaignStatusActive:    {CampaignStatusPaused, CampaignStatusCompleted},
	CampaignStatusPaused:    {CampaignStatusActive, CampaignStatusCompleted},
	CampaignStatusCompleted: {},
}

// CanTransition reports whether a campaign may move from one status to another.
func CanTransition(from, to CampaignStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and applies a status change. An illegal transition
// returns ErrInvalidTransition and leaves the campaign untouched.
func (c *Campaign) Transition(to CampaignStatus) error {
	if !CanTransition(c.Status, to) {
		return errors.Wrapf(errors.ErrInvalidTransition, "campaign %s: %s -> %s", c.ID, c.Status, to)
	}
	c.Status = to
	return nil
}
