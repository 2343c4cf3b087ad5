// Package repository provides data persistence implementations for campaign entities.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/campaign/domain"
	"github.com/allisson/outreach/internal/database"
	apperrors "github.com/allisson/outreach/internal/errors"
)

// PostgreSQLCampaignRepository handles campaign persistence for PostgreSQL.
type PostgreSQLCampaignRepository struct {
	db *sql.DB
}

// NewPostgreSQLCampaignRepository creates a new PostgreSQLCampaignRepository.
func NewPostgreSQLCampaignRepository(db *sql.DB) *PostgreSQLCampaignRepository {
	return &PostgreSQLCampaignRepository{db: db}
}

// Create inserts a new campaign.
func (r *PostgreSQLCampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO campaigns (id, name, status, context, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`

	if _, err := querier.ExecContext(ctx, query, c.ID, c.Name, c.Status, c.Context); err != nil {
		return apperrors.Wrap(err, "failed to create campaign")
	}
	return nil
}

// GetByID retrieves a campaign by ID.
func (r *PostgreSQLCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, status, context, created_at, updated_at FROM campaigns WHERE id = $1`

	var c domain.Campaign
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Status, &c.Context, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get campaign by id")
	}
	return &c, nil
}

// UpdateStatus flips the campaign status as a single-row write.
func (r *PostgreSQLCampaignRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CampaignStatus) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE campaigns SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id, status)
	if err != nil {
		return apperrors.Wrap(err, "failed to update campaign status")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}
