// Package repository provides data persistence implementations for import jobs.
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

// PostgreSQLImportJobRepository handles import job persistence for PostgreSQL.
type PostgreSQLImportJobRepository struct {
	db *sql.DB
}

// NewPostgreSQLImportJobRepository creates a new PostgreSQLImportJobRepository.
func NewPostgreSQLImportJobRepository(db *sql.DB) *PostgreSQLImportJobRepository {
	return &PostgreSQLImportJobRepository{db: db}
}

// Create inserts a new import job.
func (r *PostgreSQLImportJobRepository) Create(ctx context.Context, j *domain.ImportJob) error {
	querier := database.GetTx(ctx, r.db)

	errorsJSON, err := marshalErrors(j.Errors)
	if err != nil {
		return err
	}

	query := `INSERT INTO import_jobs (id, campaign_id, status, total_prospects,
		successful_prospects, failed_prospects, errors, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query,
		j.ID, j.CampaignID, j.Status, j.TotalProspects, j.SuccessfulProspects, j.FailedProspects, errorsJSON,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create import job")
	}
	return nil
}

// GetByID retrieves an import job by ID.
func (r *PostgreSQLImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, campaign_id, status, total_prospects, successful_prospects,
		failed_prospects, errors, created_at, updated_at
		FROM import_jobs WHERE id = $1`

	var j domain.ImportJob
	var errorsJSON string
	err := querier.QueryRowContext(ctx, query, id).Scan(
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
func (r *PostgreSQLImportJobRepository) Update(ctx context.Context, j *domain.ImportJob) error {
	querier := database.GetTx(ctx, r.db)

	errorsJSON, err := marshalErrors(j.Errors)
	if err != nil {
		return err
	}

	query := `UPDATE import_jobs SET status = $2, total_prospects = $3, successful_prospects = $4,
		failed_prospects = $5, errors = $6, updated_at = NOW()
		WHERE id = $1`

	result, err := querier.ExecContext(ctx, query,
		j.ID, j.Status, j.TotalProspects, j.SuccessfulProspects, j.FailedProspects, errorsJSON,
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

// marshalErrors encodes the per-row error list; nil encodes as an empty array
// so the column round-trips cleanly.
func marshalErrors(msgs []string) (string, error) {
	if msgs == nil {
		msgs = []string{}
	}
	out, err := json.Marshal(msgs)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode import job errors")
	}
	return string(out), nil
}
