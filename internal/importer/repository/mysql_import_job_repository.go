package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/database"
	apperrors "github.com/allisson/outreach/internal/errors"
	"github.com/allisson/outreach/internal/importer/domain"
)

// MySQLImportJobRepository handles import job persistence for MySQL.
type MySQLImportJobRepository struct {
	db *sql.DB
}

// NewMySQLImportJobRepository creates a new MySQLImportJobRepository.
func NewMySQLImportJobRepository(db *sql.DB) *MySQLImportJobRepository {
	return &MySQLImportJobRepository{db: db}
}

// Create inserts a new import job.
func (r *MySQLImportJobRepository) Create(ctx context.Context, j *domain.ImportJob) error {
	querier := database.GetTx(ctx, r.db)

	errorsJSON, err := marshalErrors(j.Errors)
	if err != nil {
		return err
	}

	query := `INSERT INTO import_jobs (id, campaign_id, status, total_prospects,
		successful_prospects, failed_prospects, errors, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query,
		j.ID.String(), j.CampaignID.String(), j.Status, j.TotalProspects,
		j.SuccessfulProspects, j.FailedProspects, errorsJSON,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create import job")
	}
	return nil
}

// GetByID retrieves an import job by ID.
func (r *MySQLImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, campaign_id, status, total_prospects, successful_prospects,
		failed_prospects, errors, created_at, updated_at
		FROM import_jobs WHERE id = ?`

	var j domain.ImportJob
	var errorsJSON string
	err := querier.QueryRowContext(ctx, query, id.String()).Scan(
		&j.ID, &j.CampaignID, &j.Status, &j.TotalProspects, &j.SuccessfulProspects,
		&j.FailedProspects, &errorsJSON, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrImportJobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan import job")
	}

	if err := json.Unmarshal([]byte(errorsJSON), &j.Errors); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode import job errors")
	}
	return &j, nil
}

// Update persists the job's status and counters.
func (r *MySQLImportJobRepository) Update(ctx context.Context, j *domain.ImportJob) error {
	querier := database.GetTx(ctx, r.db)

	errorsJSON, err := marshalErrors(j.Errors)
	if err != nil {
		return err
	}

	query := `UPDATE import_jobs SET status = ?, total_prospects = ?, successful_prospects = ?,
		failed_prospects = ?, errors = ?, updated_at = NOW()
		WHERE id = ?`

	result, err := querier.ExecContext(ctx, query,
		j.Status, j.TotalProspects, j.SuccessfulProspects, j.FailedProspects, errorsJSON,
		j.ID.String(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update import job")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return domain.ErrImportJobNotFound
	}
	return nil
}
