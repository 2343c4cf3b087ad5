package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/allisson/outreach/internal/database"
	apperrors "github.com/allisson/outreach/internal/errors"
	"github.com/allisson/outreach/internal/queue/domain"
)

// MySQLJobRepository handles queue job persistence for MySQL.
type MySQLJobRepository struct {
	db *sql.DB
}

// NewMySQLJobRepository creates a new MySQLJobRepository.
func NewMySQLJobRepository(db *sql.DB) *MySQLJobRepository {
	return &MySQLJobRepository{db: db}
}

// Insert adds a job if its id is not already present. The id is the
// idempotency key, so re-inserting an existing job is a silent no-op.
func (r *MySQLJobRepository) Insert(ctx context.Context, j *domain.Job) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT IGNORE INTO queue_jobs (id, kind, payload, status, attempts, next_attempt_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, j.ID, j.Kind, j.Payload, j.Status, j.Attempts, j.NextAttemptAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to insert queue job")
	}
	return nil
}

// ClaimNext atomically claims the oldest due waiting job. Requires MySQL 8 for
// SKIP LOCKED and must run inside a transaction. Returns ErrJobNotFound when
// no job is due.
func (r *MySQLJobRepository) ClaimNext(ctx context.Context, now time.Time) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM queue_jobs
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY next_attempt_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, jobColumns)

	job, err := scanJob(querier.QueryRowContext(ctx, query, domain.JobStatusWaiting, now))
	if err != nil {
		return nil, err
	}

	update := `UPDATE queue_jobs SET status = ?, attempts = attempts + 1, updated_at = NOW() WHERE id = ?`
	if _, err := querier.ExecContext(ctx, update, domain.JobStatusActive, job.ID); err != nil {
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
func (r *MySQLJobRepository) ClaimByID(ctx context.Context, id string) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE queue_jobs SET status = ?, attempts = attempts + 1, updated_at = NOW()
		WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query, domain.JobStatusActive, id, domain.JobStatusWaiting)
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
func (r *MySQLJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM queue_jobs WHERE id = ?`, jobColumns)
	return scanJob(querier.QueryRowContext(ctx, query, id))
}

// MarkCompleted moves an active job to completed.
func (r *MySQLJobRepository) MarkCompleted(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.JobStatusCompleted, nil)
}

// MarkFailed moves a job to failed, recording the final error.
func (r *MySQLJobRepository) MarkFailed(ctx context.Context, id, errMsg string) error {
	return r.setStatus(ctx, id, domain.JobStatusFailed, &errMsg)
}

func (r *MySQLJobRepository) setStatus(ctx context.Context, id string, status domain.JobStatus, errMsg *string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE queue_jobs SET status = ?, last_error = ?, updated_at = NOW() WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, status, errMsg, id)
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
func (r *MySQLJobRepository) Reschedule(ctx context.Context, id, errMsg string, nextAttemptAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE queue_jobs SET status = ?, last_error = ?, next_attempt_at = ?, updated_at = NOW()
		WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, domain.JobStatusWaiting, errMsg, nextAttemptAt, id)
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
func (r *MySQLJobRepository) Stats(ctx context.Context) (*domain.Stats, error) {
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
// were never picked up.
func (r *MySQLJobRepository) ListStuckWaiting(ctx context.Context, dueBefore time.Time, limit int) ([]*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM queue_jobs
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY next_attempt_at LIMIT ?`, jobColumns)

	rows, err := querier.QueryContext(ctx, query, domain.JobStatusWaiting, dueBefore, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list stuck queue jobs")
	}
	defer rows.Close()

	return scanJobs(rows)
}

// PruneCompleted deletes completed jobs beyond the newest keep. MySQL cannot
// delete from a table it subqueries, so the keep set goes through a derived
// table. Returns the number of rows removed.
func (r *MySQLJobRepository) PruneCompleted(ctx context.Context, keep int) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM queue_jobs WHERE status = ? AND id NOT IN (
		SELECT id FROM (
			SELECT id FROM queue_jobs WHERE status = ? ORDER BY updated_at DESC LIMIT ?
		) AS keep_jobs
	)`

	result, err := querier.ExecContext(ctx, query, domain.JobStatusCompleted, domain.JobStatusCompleted, keep)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to prune completed queue jobs")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to check prune result")
	}
	return rows, nil
}
