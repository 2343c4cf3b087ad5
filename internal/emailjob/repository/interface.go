package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/emailjob/domain"
)

// Repository is the email job persistence surface implemented by both the
// PostgreSQL and MySQL repositories.
type Repository interface {
	Create(ctx context.Context, j *domain.EmailJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.EmailJob, error)
	GetByProspectAndCampaign(ctx context.Context, prospectID, campaignID uuid.UUID) (*domain.EmailJob, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*domain.EmailJob, error)
	GetByConversationID(ctx context.Context, conversationID string) (*domain.EmailJob, error)
	Update(ctx context.Context, j *domain.EmailJob) error
	SetCorrelationID(ctx context.Context, id uuid.UUID, correlationID string) error
	MarkAnalyzed(ctx context.Context, id uuid.UUID, analyzedAt time.Time) (bool, error)
	ListSentUnanalyzed(ctx context.Context, sentAfter time.Time, limit int) ([]*domain.EmailJob, error)
	ListByProspectSentWithin(ctx context.Context, prospectID uuid.UUID, from, to time.Time) ([]*domain.EmailJob, error)
	ListFailed(ctx context.Context, maxAttempts, limit int) ([]*domain.EmailJob, error)
	ListMissingDraft(ctx context.Context, limit int) ([]*domain.EmailJob, error)
	CountByCampaignAndStatus(ctx context.Context, campaignID uuid.UUID) (map[domain.EmailJobStatus]int, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*domain.EmailJob, error)
}
