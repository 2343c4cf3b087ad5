// Package repository provides data persistence implementations for prospect entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/classify"
	"github.com/allisson/outreach/internal/database"
	apperrors "github.com/allisson/outreach/internal/errors"
	"github.com/allisson/outreach/internal/prospect/domain"
)

// prospectColumns is the shared select list for prospect rows.
const prospectColumns = `id, website, contact_email, company_name, status, retry_count,
	last_error_stage, last_error_type, last_error_message, last_error_retryable,
	last_error_retry_count, last_error_at, scraped_data, analysis, created_at, updated_at`

// PostgreSQLProspectRepository handles prospect persistence for PostgreSQL.
type PostgreSQLProspectRepository struct {
	db *sql.DB
}

// NewPostgreSQLProspectRepository creates a new PostgreSQLProspectRepository.
func NewPostgreSQLProspectRepository(db *sql.DB) *PostgreSQLProspectRepository {
	return &PostgreSQLProspectRepository{db: db}
}

// Create inserts a new prospect.
func (r *PostgreSQLProspectRepository) Create(ctx context.Context, p *domain.Prospect) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO prospects (id, website, contact_email, company_name, status, retry_count,
		scraped_data, analysis, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		p.ID, p.Website, p.ContactEmail, p.CompanyName, p.Status, p.RetryCount, p.ScrapedData, p.Analysis,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrProspectAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create prospect")
	}
	return nil
}

// GetByID retrieves a prospect by ID.
func (r *PostgreSQLProspectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM prospects WHERE id = $1`, prospectColumns)
	return scanProspect(querier.QueryRowContext(ctx, query, id))
}

// GetByWebsite retrieves a prospect by its unique website URL.
func (r *PostgreSQLProspectRepository) GetByWebsite(ctx context.Context, website string) (*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM prospects WHERE website = $1`, prospectColumns)
	return scanProspect(querier.QueryRowContext(ctx, query, website))
}

// GetByContactEmail retrieves a prospect by contact email (case-insensitive).
func (r *PostgreSQLProspectRepository) GetByContactEmail(ctx context.Context, email string) (*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM prospects WHERE LOWER(contact_email) = LOWER($1)`, prospectColumns)
	return scanProspect(querier.QueryRowContext(ctx, query, email))
}

// Update persists the prospect's mutable fields as a single-row last-writer-wins write.
func (r *PostgreSQLProspectRepository) Update(ctx context.Context, p *domain.Prospect) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE prospects SET status = $2, retry_count = $3,
		last_error_stage = $4, last_error_type = $5, last_error_message = $6,
		last_error_retryable = $7, last_error_retry_count = $8, last_error_at = $9,
		scraped_data = $10, analysis = $11, updated_at = NOW()
		WHERE id = $1`

	var stage, errType, errMsg *string
	var retryable *bool
	var errRetryCount *int
	var errAt *time.Time
	if le := p.LastError; le != nil {
		s, ty, m := string(le.Stage), string(le.Type), le.Message
		stage, errType, errMsg = &s, &ty, &m
		retryable = &le.Retryable
		errRetryCount = &le.RetryCount
		errAt = &le.OccurredAt
	}

	result, err := querier.ExecContext(ctx, query,
		p.ID, p.Status, p.RetryCount, stage, errType, errMsg, retryable, errRetryCount, errAt,
		p.ScrapedData, p.Analysis,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update prospect")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return domain.ErrProspectNotFound
	}
	return nil
}

// AttachToCampaign associates a prospect with a campaign; re-attaching is a no-op.
func (r *PostgreSQLProspectRepository) AttachToCampaign(ctx context.Context, prospectID, campaignID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO campaign_prospects (campaign_id, prospect_id, created_at)
		VALUES ($1, $2, NOW()) ON CONFLICT DO NOTHING`

	if _, err := querier.ExecContext(ctx, query, campaignID, prospectID); err != nil {
		return apperrors.Wrap(err, "failed to attach prospect to campaign")
	}
	return nil
}

// ListByCampaignAndStatus returns the campaign's prospects holding any of the
// given statuses, oldest first.
func (r *PostgreSQLProspectRepository) ListByCampaignAndStatus(
	ctx context.Context,
	campaignID uuid.UUID,
	statuses []domain.ProspectStatus,
) ([]*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	placeholders := make([]string, len(statuses))
	args := []any{campaignID}
	for i, s := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, s)
	}

	query := fmt.Sprintf(`SELECT %s FROM prospects p
		JOIN campaign_prospects cp ON cp.prospect_id = p.id
		WHERE cp.campaign_id = $1 AND p.status IN (%s)
		ORDER BY p.created_at`, prefixColumns("p"), strings.Join(placeholders, ", "))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list prospects by campaign")
	}
	defer rows.Close()

	return scanProspects(rows)
}

// ListFailedRetryable returns failed prospects whose recorded error is retryable.
func (r *PostgreSQLProspectRepository) ListFailedRetryable(ctx context.Context, limit int) ([]*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM prospects
		WHERE status = $1 AND last_error_retryable = TRUE
		ORDER BY updated_at LIMIT $2`, prospectColumns)

	rows, err := querier.QueryContext(ctx, query, domain.ProspectStatusFailed, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list retryable prospects")
	}
	defer rows.Close()

	return scanProspects(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProspect maps one row to a Prospect, rebuilding LastError from its columns.
func scanProspect(row rowScanner) (*domain.Prospect, error) {
	var p domain.Prospect
	var stage, errType, errMsg sql.NullString
	var retryable sql.NullBool
	var errRetryCount sql.NullInt64
	var errAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.Website, &p.ContactEmail, &p.CompanyName, &p.Status, &p.RetryCount,
		&stage, &errType, &errMsg, &retryable, &errRetryCount, &errAt,
		&p.ScrapedData, &p.Analysis, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProspectNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan prospect")
	}

	if stage.Valid {
		p.LastError = &domain.StageError{
			Stage:      domain.Stage(stage.String),
			Type:       classify.ErrorType(errType.String),
			Message:    errMsg.String,
			Retryable:  retryable.Bool,
			RetryCount: int(errRetryCount.Int64),
			OccurredAt: errAt.Time,
		}
	}
	return &p, nil
}

// scanProspects drains rows into a slice.
func scanProspects(rows *sql.Rows) ([]*domain.Prospect, error) {
	var out []*domain.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate prospects")
	}
	return out, nil
}

// prefixColumns qualifies the shared column list with a table alias.
func prefixColumns(alias string) string {
	cols := strings.Split(prospectColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
