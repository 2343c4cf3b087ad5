package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/campaign/domain"
)

// Repository is the campaign persistence surface implemented by both the
// PostgreSQL and MySQL repositories.
type Repository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CampaignStatus) error
}
