// Package repository provides data persistence implementations for email jobs.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/database"
	"github.com/allisson/outreach/internal/emailjob/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
)

// emailJobColumns is the shared select list for email job rows.
const emailJobColumns = `id, prospect_id, campaign_id, status, attempts, last_error,
	generated_email, draft_id, message_id, conversation_id, sent_at,
	correlation_id, analyzed_at, created_at, updated_at`

// PostgreSQLEmailJobRepository handles email job persistence for PostgreSQL.
type PostgreSQLEmailJobRepository struct {
	db *sql.DB
}

// NewPostgreSQLEmailJobRepository creates a new PostgreSQLEmailJobRepository.
func NewPostgreSQLEmailJobRepository(db *sql.DB) *PostgreSQLEmailJobRepository {
	return &PostgreSQLEmailJobRepository{db: db}
}

// Create inserts a new email job. The (prospect_id, campaign_id) pair is
// unique; violating it returns ErrEmailJobExists.
func (r *PostgreSQLEmailJobRepository) Create(ctx context.Context, j *domain.EmailJob) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO email_jobs (id, prospect_id, campaign_id, status, attempts,
		generated_email, draft_id, message_id, conversation_id, correlation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		j.ID, j.ProspectID, j.CampaignID, j.Status, j.Attempts,
		j.GeneratedEmail, j.DraftID, j.MessageID, j.ConversationID, j.CorrelationID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrEmailJobExists
		}
		return apperrors.Wrap(err, "failed to create email job")
	}
	return nil
}

// GetByID retrieves an email job by ID.
func (r *PostgreSQLEmailJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs WHERE id = $1`, emailJobColumns)
	return scanEmailJob(querier.QueryRowContext(ctx, query, id))
}

// GetByProspectAndCampaign retrieves the job for a (prospect, campaign) pair.
func (r *PostgreSQLEmailJobRepository) GetByProspectAndCampaign(
	ctx context.Context,
	prospectID, campaignID uuid.UUID,
) (*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs WHERE prospect_id = $1 AND campaign_id = $2`, emailJobColumns)
	return scanEmailJob(querier.QueryRowContext(ctx, query, prospectID, campaignID))
}

// GetByCorrelationID retrieves the job whose stored correlation id matches the
// inbound conversation id. This is the O(1) fast path of the matcher.
func (r *PostgreSQLEmailJobRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs WHERE correlation_id = $1`, emailJobColumns)
	return scanEmailJob(querier.QueryRowContext(ctx, query, correlationID))
}

// GetByConversationID retrieves the job sent into the given provider
// conversation thread.
func (r *PostgreSQLEmailJobRepository) GetByConversationID(ctx context.Context, conversationID string) (*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs WHERE conversation_id = $1`, emailJobColumns)
	return scanEmailJob(querier.QueryRowContext(ctx, query, conversationID))
}

// Update persists the job's mutable fields as a single-row last-writer-wins write.
func (r *PostgreSQLEmailJobRepository) Update(ctx context.Context, j *domain.EmailJob) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE email_jobs SET status = $2, attempts = $3, last_error = $4,
		generated_email = $5, draft_id = $6, message_id = $7, conversation_id = $8,
		sent_at = $9, correlation_id = $10, updated_at = NOW()
		WHERE id = $1`

	result, err := querier.ExecContext(ctx, query,
		j.ID, j.Status, j.Attempts, j.LastError,
		j.GeneratedEmail, j.DraftID, j.MessageID, j.ConversationID, j.SentAt, j.CorrelationID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update email job")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return domain.ErrEmailJobNotFound
	}
	return nil
}

// SetCorrelationID stores the resolved conversation id so future lookups hit
// the stored-id fast path.
func (r *PostgreSQLEmailJobRepository) SetCorrelationID(ctx context.Context, id uuid.UUID, correlationID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE email_jobs SET correlation_id = $2, updated_at = NOW() WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, id, correlationID); err != nil {
		return apperrors.Wrap(err, "failed to set correlation id")
	}
	return nil
}

// MarkAnalyzed conditionally stamps analyzed_at; it reports false when the
// job was already analyzed, which keeps webhook and poll ingestion from
// analyzing the same reply twice.
func (r *PostgreSQLEmailJobRepository) MarkAnalyzed(ctx context.Context, id uuid.UUID, analyzedAt time.Time) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE email_jobs SET analyzed_at = $2, updated_at = NOW()
		WHERE id = $1 AND analyzed_at IS NULL`

	result, err := querier.ExecContext(ctx, query, id, analyzedAt)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to mark email job analyzed")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check update result")
	}
	return rows > 0, nil
}

// ListSentUnanalyzed returns jobs sent after the cutoff whose responses have
// not been analyzed, for the reply poller.
func (r *PostgreSQLEmailJobRepository) ListSentUnanalyzed(ctx context.Context, sentAfter time.Time, limit int) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE sent_at IS NOT NULL AND sent_at >= $1 AND analyzed_at IS NULL
		ORDER BY sent_at DESC LIMIT $2`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, sentAfter, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list unanalyzed email jobs")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}

// ListByProspectSentWithin returns the prospect's unanalyzed jobs sent inside
// [from, to], most recent first; used by the participant time-window heuristic.
func (r *PostgreSQLEmailJobRepository) ListByProspectSentWithin(
	ctx context.Context,
	prospectID uuid.UUID,
	from, to time.Time,
) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE prospect_id = $1 AND sent_at IS NOT NULL AND sent_at BETWEEN $2 AND $3 AND analyzed_at IS NULL
		ORDER BY sent_at DESC`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, prospectID, from, to)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list email jobs by prospect window")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}

// ListFailed returns failed jobs with attempts below the ceiling, for the retry sweep.
func (r *PostgreSQLEmailJobRepository) ListFailed(ctx context.Context, maxAttempts, limit int) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE status = $1 AND attempts < $2
		ORDER BY updated_at LIMIT $3`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, domain.EmailJobStatusFailed, maxAttempts, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list failed email jobs")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}

// ListMissingDraft returns completed-generation jobs that still have no draft,
// for the draft retry sweep.
func (r *PostgreSQLEmailJobRepository) ListMissingDraft(ctx context.Context, limit int) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE generated_email <> '' AND draft_id = ''
		ORDER BY updated_at LIMIT $1`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list draftless email jobs")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}

// CountByCampaignAndStatus returns per-status job counts for one campaign.
func (r *PostgreSQLEmailJobRepository) CountByCampaignAndStatus(
	ctx context.Context,
	campaignID uuid.UUID,
) (map[domain.EmailJobStatus]int, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT status, COUNT(*) FROM email_jobs WHERE campaign_id = $1 GROUP BY status`

	rows, err := querier.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count email jobs")
	}
	defer rows.Close()

	counts := make(map[domain.EmailJobStatus]int)
	for rows.Next() {
		var status domain.EmailJobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan email job count")
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate email job counts")
	}
	return counts, nil
}

// ListByCampaign returns a page of the campaign's jobs, newest first.
func (r *PostgreSQLEmailJobRepository) ListByCampaign(
	ctx context.Context,
	campaignID uuid.UUID,
	offset, limit int,
) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE campaign_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, campaignID, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list email jobs by campaign")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEmailJob maps one row to an EmailJob.
func scanEmailJob(row rowScanner) (*domain.EmailJob, error) {
	var j domain.EmailJob
	var lastError sql.NullString
	var sentAt, analyzedAt sql.NullTime

	err := row.Scan(
		&j.ID, &j.ProspectID, &j.CampaignID, &j.Status, &j.Attempts, &lastError,
		&j.GeneratedEmail, &j.DraftID, &j.MessageID, &j.ConversationID, &sentAt,
		&j.CorrelationID, &analyzedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEmailJobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan email job")
	}

	if lastError.Valid {
		j.LastError = &lastError.String
	}
	if sentAt.Valid {
		t := sentAt.Time
		j.SentAt = &t
	}
	if analyzedAt.Valid {
		t := analyzedAt.Time
		j.AnalyzedAt = &t
	}
	return &j, nil
}

// scanEmailJobs drains rows into a slice.
func scanEmailJobs(rows *sql.Rows) ([]*domain.EmailJob, error) {
	var out []*domain.EmailJob
	for rows.Next() {
		j, err := scanEmailJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate email jobs")
	}
	return out, nil
}
