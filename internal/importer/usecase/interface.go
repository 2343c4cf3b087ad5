// Package usecase implements bulk prospect imports: row validation,
// per-prospect creation with website dedupe, campaign attachment and the
// import job's outcome counters.
package usecase

import (
	"context"

	"github.com/google/uuid"

	campaignDomain "github.com/allisson/outreach/internal/campaign/domain"
	importerDomain "github.com/allisson/outreach/internal/importer/domain"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
)

// Row is one parsed prospect record. Reading files into rows is the caller's
// concern.
type Row struct {
	Website      string
	ContactEmail string
	CompanyName  string
}

// ImportJobRepository defines the import job persistence operations.
type ImportJobRepository interface {
	Create(ctx context.Context, j *importerDomain.ImportJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*importerDomain.ImportJob, error)
	Update(ctx context.Context, j *importerDomain.ImportJob) error
}

// ProspectRepository defines the prospect persistence operations the
// importer depends on.
type ProspectRepository interface {
	Create(ctx context.Context, p *prospectDomain.Prospect) error
	GetByWebsite(ctx context.Context, website string) (*prospectDomain.Prospect, error)
	AttachToCampaign(ctx context.Context, prospectID, campaignID uuid.UUID) error
}

// CampaignRepository defines the campaign lookup the importer depends on.
type CampaignRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*campaignDomain.Campaign, error)
}

// ImporterUseCase defines the interface for bulk prospect imports.
type ImporterUseCase interface {
	// ImportProspects imports the rows into the campaign. Each row either
	// creates a prospect or attaches the existing one that shares its
	// website; row failures are counted on the job and never abort the
	// import.
	ImportProspects(ctx context.Context, campaignID uuid.UUID, rows []Row) (*importerDomain.ImportJob, error)
	// GetImportJob retrieves one import job by id.
	GetImportJob(ctx context.Context, id uuid.UUID) (*importerDomain.ImportJob, error)
}
