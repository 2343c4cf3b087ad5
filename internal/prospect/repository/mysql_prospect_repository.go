package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/database"
	apperrors "github.com/allisson/outreach/internal/errors"
	"github.com/allisson/outreach/internal/prospect/domain"
)

// MySQLProspectRepository handles prospect persistence for MySQL.
type MySQLProspectRepository struct {
	db *sql.DB
}

// NewMySQLProspectRepository creates a new MySQLProspectRepository.
func NewMySQLProspectRepository(db *sql.DB) *MySQLProspectRepository {
	return &MySQLProspectRepository{db: db}
}

// Create inserts a new prospect.
func (r *MySQLProspectRepository) Create(ctx context.Context, p *domain.Prospect) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO prospects (id, website, contact_email, company_name, status, retry_count,
		scraped_data, analysis, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		p.ID.String(), p.Website, p.ContactEmail, p.CompanyName, p.Status, p.RetryCount, p.ScrapedData, p.Analysis,
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
func (r *MySQLProspectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM prospects WHERE id = ?`, prospectColumns)
	return scanProspect(querier.QueryRowContext(ctx, query, id.String()))
}

// GetByWebsite retrieves a prospect by its unique website URL.
func (r *MySQLProspectRepository) GetByWebsite(ctx context.Context, website string) (*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM prospects WHERE website = ?`, prospectColumns)
	return scanProspect(querier.QueryRowContext(ctx, query, website))
}

// GetByContactEmail retrieves a prospect by contact email (case-insensitive).
func (r *MySQLProspectRepository) GetByContactEmail(ctx context.Context, email string) (*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM prospects WHERE LOWER(contact_email) = LOWER(?)`, prospectColumns)
	return scanProspect(querier.QueryRowContext(ctx, query, email))
}

// Update persists the prospect's mutable fields as a single-row last-writer-wins write.
func (r *MySQLProspectRepository) Update(ctx context.Context, p *domain.Prospect) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE prospects SET status = ?, retry_count = ?,
		last_error_stage = ?, last_error_type = ?, last_error_message = ?,
		last_error_retryable = ?, last_error_retry_count = ?, last_error_at = ?,
		scraped_data = ?, analysis = ?, updated_at = NOW()
		WHERE id = ?`

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
		p.Status, p.RetryCount, stage, errType, errMsg, retryable, errRetryCount, errAt,
		p.ScrapedData, p.Analysis, p.ID.String(),
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
func (r *MySQLProspectRepository) AttachToCampaign(ctx context.Context, prospectID, campaignID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT IGNORE INTO campaign_prospects (campaign_id, prospect_id, created_at)
		VALUES (?, ?, NOW())`

	if _, err := querier.ExecContext(ctx, query, campaignID.String(), prospectID.String()); err != nil {
		return apperrors.Wrap(err, "failed to attach prospect to campaign")
	}
	return nil
}

// ListByCampaignAndStatus returns the campaign's prospects holding any of the
// given statuses, oldest first.
func (r *MySQLProspectRepository) ListByCampaignAndStatus(
	ctx context.Context,
	campaignID uuid.UUID,
	statuses []domain.ProspectStatus,
) ([]*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	placeholders := make([]string, len(statuses))
	args := []any{campaignID.String()}
	for i, s := range statuses {
		placeholders[i] = "?"
		args = append(args, s)
	}

	query := fmt.Sprintf(`SELECT %s FROM prospects p
		JOIN campaign_prospects cp ON cp.prospect_id = p.id
		WHERE cp.campaign_id = ? AND p.status IN (%s)
		ORDER BY p.created_at`, prefixColumns("p"), strings.Join(placeholders, ", "))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list prospects by campaign")
	}
	defer rows.Close()

	return scanProspects(rows)
}

// ListFailedRetryable returns failed prospects whose recorded error is retryable.
func (r *MySQLProspectRepository) ListFailedRetryable(ctx context.Context, limit int) ([]*domain.Prospect, error) {
	querier := database.GetTx(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM prospects
		WHERE status = ? AND last_error_retryable = TRUE
		ORDER BY updated_at LIMIT ?`, prospectColumns)

	rows, err := querier.QueryContext(ctx, query, domain.ProspectStatusFailed, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list retryable prospects")
	}
	defer rows.Close()

	return scanProspects(rows)
}
