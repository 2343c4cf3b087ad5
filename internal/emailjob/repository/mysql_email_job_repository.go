package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/database"
	"github.com/allisson/outreach/internal/emailjob/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
)

// MySQLEmailJobRepository handles email job persistence for MySQL.
type MySQLEmailJobRepository struct {
	db *sql.DB
}

// NewMySQLEmailJobRepository creates a new MySQLEmailJobRepository.
func NewMySQLEmailJobRepository(db *sql.DB) *MySQLEmailJobRepository {
	return &MySQLEmailJobRepository{db: db}
}

// Create inserts a new email job. The (prospect_id, campaign_id) pair is
// unique; violating it returns ErrEmailJobExists.
func (r *MySQLEmailJobRepository) Create(ctx context.Context, j *domain.EmailJob) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO email_jobs (id, prospect_id, campaign_id, status, attempts,
		generated_email, draft_id, message_id, conversation_id, correlation_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		j.ID.String(), j.ProspectID.String(), j.CampaignID.String(), j.Status, j.Attempts,
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
func (r *MySQLEmailJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs WHERE id = ?`, emailJobColumns)
	return scanEmailJob(querier.QueryRowContext(ctx, query, id.String()))
}

// GetByProspectAndCampaign retrieves the job for a (prospect, campaign) pair.
func (r *MySQLEmailJobRepository) GetByProspectAndCampaign(
	ctx context.Context,
	prospectID, campaignID uuid.UUID,
) (*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs WHERE prospect_id = ? AND campaign_id = ?`, emailJobColumns)
	return scanEmailJob(querier.QueryRowContext(ctx, query, prospectID.String(), campaignID.String()))
}

// GetByCorrelationID retrieves the job whose stored correlation id matches the
// inbound conversation id.
func (r *MySQLEmailJobRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs WHERE correlation_id = ?`, emailJobColumns)
	return scanEmailJob(querier.QueryRowContext(ctx, query, correlationID))
}

// GetByConversationID retrieves the job sent into the given provider
// conversation thread.
func (r *MySQLEmailJobRepository) GetByConversationID(ctx context.Context, conversationID string) (*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs WHERE conversation_id = ?`, emailJobColumns)
	return scanEmailJob(querier.QueryRowContext(ctx, query, conversationID))
}

// Update persists the job's mutable fields as a single-row last-writer-wins write.
func (r *MySQLEmailJobRepository) Update(ctx context.Context, j *domain.EmailJob) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE email_jobs SET status = ?, attempts = ?, last_error = ?,
		generated_email = ?, draft_id = ?, message_id = ?, conversation_id = ?,
		sent_at = ?, correlation_id = ?, updated_at = NOW()
		WHERE id = ?`

	result, err := querier.ExecContext(ctx, query,
		j.Status, j.Attempts, j.LastError,
		j.GeneratedEmail, j.DraftID, j.MessageID, j.ConversationID, j.SentAt, j.CorrelationID,
		j.ID.String(),
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
func (r *MySQLEmailJobRepository) SetCorrelationID(ctx context.Context, id uuid.UUID, correlationID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE email_jobs SET correlation_id = ?, updated_at = NOW() WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, correlationID, id.String()); err != nil {
		return apperrors.Wrap(err, "failed to set correlation id")
	}
	return nil
}

// MarkAnalyzed conditionally stamps analyzed_at; it reports false when the
// job was already analyzed.
func (r *MySQLEmailJobRepository) MarkAnalyzed(ctx context.Context, id uuid.UUID, analyzedAt time.Time) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE email_jobs SET analyzed_at = ?, updated_at = NOW()
		WHERE id = ? AND analyzed_at IS NULL`

	result, err := querier.ExecContext(ctx, query, analyzedAt, id.String())
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
// not been analyzed.
func (r *MySQLEmailJobRepository) ListSentUnanalyzed(ctx context.Context, sentAfter time.Time, limit int) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE sent_at IS NOT NULL AND sent_at >= ? AND analyzed_at IS NULL
		ORDER BY sent_at DESC LIMIT ?`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, sentAfter, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list unanalyzed email jobs")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}

// ListByProspectSentWithin returns the prospect's unanalyzed jobs sent inside
// [from, to], most recent first.
func (r *MySQLEmailJobRepository) ListByProspectSentWithin(
	ctx context.Context,
	prospectID uuid.UUID,
	from, to time.Time,
) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE prospect_id = ? AND sent_at IS NOT NULL AND sent_at BETWEEN ? AND ? AND analyzed_at IS NULL
		ORDER BY sent_at DESC`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, prospectID.String(), from, to)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list email jobs by prospect window")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}

// ListFailed returns failed jobs with attempts below the ceiling.
func (r *MySQLEmailJobRepository) ListFailed(ctx context.Context, maxAttempts, limit int) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE status = ? AND attempts < ?
		ORDER BY updated_at LIMIT ?`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, domain.EmailJobStatusFailed, maxAttempts, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list failed email jobs")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}

// ListMissingDraft returns completed-generation jobs that still have no draft.
func (r *MySQLEmailJobRepository) ListMissingDraft(ctx context.Context, limit int) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE generated_email <> '' AND draft_id = ''
		ORDER BY updated_at LIMIT ?`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list draftless email jobs")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}

// CountByCampaignAndStatus returns per-status job counts for one campaign.
func (r *MySQLEmailJobRepository) CountByCampaignAndStatus(
	ctx context.Context,
	campaignID uuid.UUID,
) (map[domain.EmailJobStatus]int, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT status, COUNT(*) FROM email_jobs WHERE campaign_id = ? GROUP BY status`

	rows, err := querier.QueryContext(ctx, query, campaignID.String())
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
func (r *MySQLEmailJobRepository) ListByCampaign(
	ctx context.Context,
	campaignID uuid.UUID,
	offset, limit int,
) ([]*domain.EmailJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM email_jobs
		WHERE campaign_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`, emailJobColumns)

	rows, err := querier.QueryContext(ctx, query, campaignID.String(), limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list email jobs by campaign")
	}
	defer rows.Close()

	return scanEmailJobs(rows)
}
