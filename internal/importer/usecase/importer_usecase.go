package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/outreach/internal/database"
	apperrors "github.com/allisson/outreach/internal/errors"
	importerDomain "github.com/allisson/outreach/internal/importer/domain"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
	customValidation "github.com/allisson/outreach/internal/validation"
)

// importerUseCase implements the ImporterUseCase interface.
type importerUseCase struct {
	importJobRepo ImportJobRepository
	prospectRepo  ProspectRepository
	campaignRepo  CampaignRepository
	txManager     database.TxManager
	logger        *slog.Logger
}

// NewImporterUseCase creates a new importer use case instance.
func NewImporterUseCase(
	importJobRepo ImportJobRepository,
	prospectRepo ProspectRepository,
	campaignRepo CampaignRepository,
	txManager database.TxManager,
	logger *slog.Logger,
) ImporterUseCase {
	return &importerUseCase{
		importJobRepo: importJobRepo,
		prospectRepo:  prospectRepo,
		campaignRepo:  campaignRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

// validateRow checks one parsed row before any persistence happens.
func validateRow(row Row) error {
	return validation.Errors{
		"website":       validation.Validate(row.Website, validation.Required, customValidation.WebsiteURL),
		"contact_email": validation.Validate(row.ContactEmail, validation.Required, customValidation.Email),
	}.Filter()
}

// ImportProspects imports the rows into the campaign. The import job records
// the outcome of every row; a row failure counts against the job and the
// loop continues with the next row.
func (u *importerUseCase) ImportProspects(
	ctx context.Context,
	campaignID uuid.UUID,
	rows []Row,
) (*importerDomain.ImportJob, error) {
	if _, err := u.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}

	job := &importerDomain.ImportJob{
		ID:             uuid.Must(uuid.NewV7()),
		CampaignID:     campaignID,
		Status:         importerDomain.ImportJobStatusPending,
		TotalProspects: len(rows),
	}
	if err := u.importJobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := job.Transition(importerDomain.ImportJobStatusProcessing); err != nil {
		return nil, err
	}
	if err := u.importJobRepo.Update(ctx, job); err != nil {
		return nil, err
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return job, err
		}

		if err := validateRow(row); err != nil {
			job.RecordFailure(fmt.Sprintf("row %d (%s): %v", i+1, row.Website, err))
			continue
		}

		if err := u.importRow(ctx, campaignID, row); err != nil {
			job.RecordFailure(fmt.Sprintf("row %d (%s): %v", i+1, row.Website, err))
			continue
		}
		job.RecordSuccess()
	}

	finalStatus := importerDomain.ImportJobStatusCompleted
	if job.TotalProspects > 0 && job.SuccessfulProspects == 0 {
		finalStatus = importerDomain.ImportJobStatusFailed
	}
	if err := job.Transition(finalStatus); err != nil {
		return nil, err
	}
	if err := u.importJobRepo.Update(ctx, job); err != nil {
		return nil, err
	}

	u.logger.Info("prospect import finished",
		"import_job_id", job.ID,
		"campaign_id", campaignID,
		"total", job.TotalProspects,
		"successful", job.SuccessfulProspects,
		"failed", job.FailedProspects,
	)
	return job, nil
}

// importRow creates or reuses the row's prospect and attaches it to the
// campaign. Both writes share one transaction so a failed attach never
// leaves an orphaned prospect.
func (u *importerUseCase) importRow(ctx context.Context, campaignID uuid.UUID, row Row) error {
	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		prospect := &prospectDomain.Prospect{
			ID:           uuid.Must(uuid.NewV7()),
			Website:      row.Website,
			ContactEmail: row.ContactEmail,
			CompanyName:  row.CompanyName,
			Status:       prospectDomain.ProspectStatusPending,
		}

		err := u.prospectRepo.Create(ctx, prospect)
		if apperrors.Is(err, apperrors.ErrConflict) {
			// The website already has a prospect; import attaches it
			// instead of duplicating it.
			existing, getErr := u.prospectRepo.GetByWebsite(ctx, row.Website)
			if getErr != nil {
				return getErr
			}
			prospect = existing
		} else if err != nil {
			return err
		}

		return u.prospectRepo.AttachToCampaign(ctx, prospect.ID, campaignID)
	})
}

// GetImportJob retrieves one import job by id.
func (u *importerUseCase) GetImportJob(ctx context.Context, id uuid.UUID) (*importerDomain.ImportJob, error) {
	return u.importJobRepo.GetByID(ctx, id)
}
