// Package repository provides data persistence implementations for queue jobs.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/allisson/outreach/internal/database"
	apperrors "github.com/allisson/outreach/internal/errors"
	"github.com/allisson/outreach/internal/queue/domain"
)

// jobColumns is the shared select list for queue job rows.
const jobColumns = `id, kind, payload, status, attempts, last_error, next_attempt_at, created_at, updated_at`

// PostgreSQLJobRepository handles queue job persistence for PostgreSQL.
type PostgreSQLJobRepository struct {
	db *sql.DB
}

// NewPostgreSQLJobRepository creates a new PostgreSQLJobRepository.
func NewPostgreSQLJobRepository(db *sql.DB) *PostgreSQLJobRepository {
	return &PostgreSQLJobRepository{db: db}
}

// Insert adds a job if its id is not already present. The id is the
// idempotency key, so re-inserting an existing job is a silent no-op
// regardless of that job's current status.
func (r *PostgreSQLJobRepository) Insert(ctx context.Context, j *domain.Job) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO queue_jobs (id, kind, payload, status, attempts, next_attempt_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING`

	_, err := querier.ExecContext(ctx, query, j.ID, j.Kind, j.Payload, j.Status, j.Attempts, j.NextAttemptAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to insert queue job")
	}
	return nil
}

// ClaimNext atomically claims the oldest due waiting job: it locks the row
// with SKIP LOCKED, marks it active and consumes one attempt. It must run
// inside a transaction so the lock holds until the status update commits.
// Returns ErrJobNotFound when no job is due.
func (r *PostgreSQLJobRepository) ClaimNext(ctx context.Context, now time.Time) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM queue_jobs
		WHERE status = $1 AND next_attempt_at <= $2
		ORDER BY next_attempt_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, jobColumns)

	job, err := scanJob(querier.QueryRowContext(ctx, query, domain.JobStatusWaiting, now))
	if err != nil {
		return nil, err
	}

	update := `UPDATE queue_jobs SET status = $2, attempts = attempts + 1, updated_at = NOW() WHERE id = $1`
	if _, err := querier.ExecContext(ctx, update, job.ID, domain.JobStatusActive); err != nil {
		return nil, apperrors.Wrap(err, "failed to claim queue job")
	}

	job.Status = domain.JobStatusActive
	job.Attempts++
	return job, nil
}

// ClaimByID claims one specific waiting job, used when a stuck job is
// processed inline instead of by a worker. The status guard makes concurrent
// claims of the same job race-safe: exactly one caller wins, the rest get
// ErrJobNotFound.
func (r *PostgreSQLJobRepository) ClaimByID(ctx context.Context, id string) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE queue_jobs SET status = $2, attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1 AND status = $3`

	result, err := querier.ExecContext(ctx, query, id, domain.JobStatusActive, domain.JobStatusWaiting)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to claim queue job by id")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to check claim result")
	}
	if rows == 0 {
		return nil, domain.ErrJobNotFound
	}
	return r.GetByID(ctx, id)
}

// GetByID retrieves a queue job by its idempotency key.
func (r *PostgreSQLJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM queue_jobs WHERE id = $1`, jobColumns)
	return scanJob(querier.QueryRowContext(ctx, query, id))
}

// MarkCompleted moves an active job to completed.
func (r *PostgreSQLJobRepository) MarkCompleted(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.JobStatusCompleted, nil)
}

// MarkFailed moves a job to failed, recording the final error.
func (r *PostgreSQLJobRepository) MarkFailed(ctx context.Context, id, errMsg string) error {
	return r.setStatus(ctx, id, domain.JobStatusFailed, &errMsg)
}

func (r *PostgreSQLJobRepository) setStatus(ctx context.Context, id string, status domain.JobStatus, errMsg *string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE queue_jobs SET status = $2, last_error = $3, updated_at = NOW() WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id, status, errMsg)
	if err != nil {
		return apperrors.Wrap(err, "failed to update queue job status")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Reschedule moves a job back to waiting with a new due time, recording the
// error that caused the retry.
func (r *PostgreSQLJobRepository) Reschedule(ctx context.Context, id, errMsg string, nextAttemptAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE queue_jobs SET status = $2, last_error = $3, next_attempt_at = $4, updated_at = NOW()
		WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id, domain.JobStatusWaiting, errMsg, nextAttemptAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to reschedule queue job")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Stats returns the per-status job counters.
func (r *PostgreSQLJobRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT status, COUNT(*) FROM queue_jobs GROUP BY status`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count queue jobs")
	}
	defer rows.Close()

	var stats domain.Stats
	for rows.Next() {
		var status domain.JobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan queue job count")
		}
		switch status {
		case domain.JobStatusWaiting:
			stats.Waiting = count
		case domain.JobStatusActive:
			stats.Active = count
		case domain.JobStatusCompleted:
			stats.Completed = count
		case domain.JobStatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate queue job counts")
	}
	return &stats, nil
}

// ListStuckWaiting returns waiting jobs that became due before the cutoff and
// were never picked up, for the synchronous fallback path.
func (r *PostgreSQLJobRepository) ListStuckWaiting(ctx context.Context, dueBefore time.Time, limit int) ([]*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM queue_jobs
		WHERE status = $1 AND next_attempt_at <= $2
		ORDER BY next_attempt_at LIMIT $3`, jobColumns)

	rows, err := querier.QueryContext(ctx, query, domain.JobStatusWaiting, dueBefore, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list stuck queue jobs")
	}
	defer rows.Close()

	return scanJobs(rows)
}

// PruneCompleted deletes completed jobs beyond the newest keep, bounding the
// retained history. Returns the number of rows removed.
func (r *PostgreSQLJobRepository) PruneCompleted(ctx context.Context, keep int) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM queue_jobs WHERE status = $1 AND id NOT IN (
		SELECT id FROM queue_jobs WHERE status = $1 ORDER BY updated_at DESC LIMIT $2
	)`

	result, err := querier.ExecContext(ctx, query, domain.JobStatusCompleted, keep)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to prune completed queue jobs")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to check prune result")
	}
	return rows, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanJob maps one row to a Job.
func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	var lastError sql.NullString

	err := row.Scan(&j.ID, &j.Kind, &j.Payload, &j.Status, &j.Attempts, &lastError,
		&j.NextAttemptAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan queue job")
	}

	if lastError.Valid {
		j.LastError = &lastError.String
	}
	return &j, nil
}

// scanJobs drains rows into a slice.
func scanJobs(rows *sql.Rows) ([]*domain.Job, error) {
	var out []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate queue jobs")
	}
	return out, nil
}
