package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/prospect/domain"
)

// Repository is the prospect persistence surface implemented by both the
// PostgreSQL and MySQL repositories.
type Repository interface {
	Create(ctx context.Context, p *domain.Prospect) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Prospect, error)
	GetByWebsite(ctx context.Context, website string) (*domain.Prospect, error)
	GetByContactEmail(ctx context.Context, email string) (*domain.Prospect, error)
	Update(ctx context.Context, p *domain.Prospect) error
	AttachToCampaign(ctx context.Context, prospectID, campaignID uuid.UUID) error
	ListByCampaignAndStatus(ctx context.Context, campaignID uuid.UUID, statuses []domain.ProspectStatus) ([]*domain.Prospect, error)
	ListFailedRetryable(ctx context.Context, limit int) ([]*domain.Prospect, error)
}
