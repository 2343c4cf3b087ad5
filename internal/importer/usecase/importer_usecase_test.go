package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	campaignDomain "github.com/allisson/outreach/internal/campaign/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
	importerDomain "github.com/allisson/outreach/internal/importer/domain"
	"github.com/allisson/outreach/internal/importer/usecase/mocks"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
)

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type importerMocks struct {
	importJobRepo *mocks.MockImportJobRepository
	prospectRepo  *mocks.MockProspectRepository
	campaignRepo  *mocks.MockCampaignRepository
}

func newTestImporter() (ImporterUseCase, *importerMocks) {
	m := &importerMocks{
		importJobRepo: &mocks.MockImportJobRepository{},
		prospectRepo:  &mocks.MockProspectRepository{},
		campaignRepo:  &mocks.MockCampaignRepository{},
	}
	uc := NewImporterUseCase(
		m.importJobRepo,
		m.prospectRepo,
		m.campaignRepo,
		passthroughTxManager{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return uc, m
}

func draftCampaign() *campaignDomain.Campaign {
	return &campaignDomain.Campaign{
		ID:     uuid.Must(uuid.NewV7()),
		Name:   "spring launch",
		Status: campaignDomain.CampaignStatusDraft,
	}
}

func TestImporterUseCase_ImportProspects(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AllRowsImported", func(t *testing.T) {
		uc, m := newTestImporter()
		campaign := draftCampaign()
		rows := []Row{
			{Website: "https://acme.example", ContactEmail: "owner@acme.example", CompanyName: "Acme"},
			{Website: "https://globex.example", ContactEmail: "ceo@globex.example", CompanyName: "Globex"},
		}

		m.campaignRepo.On("GetByID", mock.Anything, campaign.ID).Return(campaign, nil).Once()
		m.importJobRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ImportJob")).Return(nil).Once()
		m.importJobRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ImportJob")).Return(nil).Twice()
		m.prospectRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Prospect")).Return(nil).Twice()
		m.prospectRepo.On("AttachToCampaign", mock.Anything, mock.AnythingOfType("uuid.UUID"), campaign.ID).
			Return(nil).Twice()

		job, err := uc.ImportProspects(ctx, campaign.ID, rows)

		require.NoError(t, err)
		assert.Equal(t, importerDomain.ImportJobStatusCompleted, job.Status)
		assert.Equal(t, 2, job.TotalProspects)
		assert.Equal(t, 2, job.SuccessfulProspects)
		assert.Zero(t, job.FailedProspects)
		assert.Empty(t, job.Errors)

		m.importJobRepo.AssertExpectations(t)
		m.prospectRepo.AssertExpectations(t)
	})

	t.Run("Success_DuplicateWebsiteAttachesExistingProspect", func(t *testing.T) {
		uc, m := newTestImporter()
		campaign := draftCampaign()
		existing := &prospectDomain.Prospect{
			ID:      uuid.Must(uuid.NewV7()),
			Website: "https://acme.example",
			Status:  prospectDomain.ProspectStatusScraped,
		}
		rows := []Row{
			{Website: "https://acme.example", ContactEmail: "owner@acme.example", CompanyName: "Acme"},
		}

		m.campaignRepo.On("GetByID", mock.Anything, campaign.ID).Return(campaign, nil).Once()
		m.importJobRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		m.importJobRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Twice()
		m.prospectRepo.On("Create", mock.Anything, mock.Anything).
			Return(prospectDomain.ErrProspectAlreadyExists).Once()
		m.prospectRepo.On("GetByWebsite", mock.Anything, "https://acme.example").Return(existing, nil).Once()
		m.prospectRepo.On("AttachToCampaign", mock.Anything, existing.ID, campaign.ID).Return(nil).Once()

		job, err := uc.ImportProspects(ctx, campaign.ID, rows)

		require.NoError(t, err)
		assert.Equal(t, importerDomain.ImportJobStatusCompleted, job.Status)
		assert.Equal(t, 1, job.SuccessfulProspects)

		m.prospectRepo.AssertExpectations(t)
	})

	t.Run("PartialFailure_InvalidRowsAreCounted", func(t *testing.T) {
		uc, m := newTestImporter()
		campaign := draftCampaign()
		rows := []Row{
			{Website: "https://acme.example", ContactEmail: "owner@acme.example"},
			{Website: "not-a-url", ContactEmail: "owner@acme.example"},
			{Website: "https://globex.example", ContactEmail: "not-an-email"},
		}

		m.campaignRepo.On("GetByID", mock.Anything, campaign.ID).Return(campaign, nil).Once()
		m.importJobRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		m.importJobRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Twice()
		m.prospectRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		m.prospectRepo.On("AttachToCampaign", mock.Anything, mock.Anything, campaign.ID).Return(nil).Once()

		job, err := uc.ImportProspects(ctx, campaign.ID, rows)

		require.NoError(t, err)
		assert.Equal(t, importerDomain.ImportJobStatusCompleted, job.Status)
		assert.Equal(t, 1, job.SuccessfulProspects)
		assert.Equal(t, 2, job.FailedProspects)
		assert.Len(t, job.Errors, 2)
		assert.Contains(t, job.Errors[0], "row 2")
		assert.Contains(t, job.Errors[1], "row 3")

		m.prospectRepo.AssertExpectations(t)
	})

	t.Run("AllRowsFail_JobEndsFailed", func(t *testing.T) {
		uc, m := newTestImporter()
		campaign := draftCampaign()
		rows := []Row{
			{Website: "", ContactEmail: ""},
		}

		m.campaignRepo.On("GetByID", mock.Anything, campaign.ID).Return(campaign, nil).Once()
		m.importJobRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		m.importJobRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Twice()

		job, err := uc.ImportProspects(ctx, campaign.ID, rows)

		require.NoError(t, err)
		assert.Equal(t, importerDomain.ImportJobStatusFailed, job.Status)
		assert.Zero(t, job.SuccessfulProspects)
		assert.Equal(t, 1, job.FailedProspects)
	})

	t.Run("Success_EmptyRowsCompleteImmediately", func(t *testing.T) {
		uc, m := newTestImporter()
		campaign := draftCampaign()

		m.campaignRepo.On("GetByID", mock.Anything, campaign.ID).Return(campaign, nil).Once()
		m.importJobRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		m.importJobRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Twice()

		job, err := uc.ImportProspects(ctx, campaign.ID, nil)

		require.NoError(t, err)
		assert.Equal(t, importerDomain.ImportJobStatusCompleted, job.Status)
		assert.Zero(t, job.TotalProspects)
	})

	t.Run("PersistenceFailure_CountsRowAndContinues", func(t *testing.T) {
		uc, m := newTestImporter()
		campaign := draftCampaign()
		rows := []Row{
			{Website: "https://acme.example", ContactEmail: "owner@acme.example"},
			{Website: "https://globex.example", ContactEmail: "ceo@globex.example"},
		}

		m.campaignRepo.On("GetByID", mock.Anything, campaign.ID).Return(campaign, nil).Once()
		m.importJobRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		m.importJobRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Twice()
		m.prospectRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *prospectDomain.Prospect) bool {
			return p.Website == "https://acme.example"
		})).Return(errors.New("connection reset")).Once()
		m.prospectRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *prospectDomain.Prospect) bool {
			return p.Website == "https://globex.example"
		})).Return(nil).Once()
		m.prospectRepo.On("AttachToCampaign", mock.Anything, mock.Anything, campaign.ID).Return(nil).Once()

		job, err := uc.ImportProspects(ctx, campaign.ID, rows)

		require.NoError(t, err)
		assert.Equal(t, importerDomain.ImportJobStatusCompleted, job.Status)
		assert.Equal(t, 1, job.SuccessfulProspects)
		assert.Equal(t, 1, job.FailedProspects)

		m.prospectRepo.AssertExpectations(t)
	})

	t.Run("Error_CampaignNotFound", func(t *testing.T) {
		uc, m := newTestImporter()
		campaignID := uuid.Must(uuid.NewV7())

		m.campaignRepo.On("GetByID", mock.Anything, campaignID).
			Return(nil, campaignDomain.ErrCampaignNotFound).Once()

		job, err := uc.ImportProspects(ctx, campaignID, []Row{{Website: "https://acme.example"}})

		assert.Nil(t, job)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		m.importJobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestImporterUseCase_GetImportJob(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		uc, m := newTestImporter()
		job := &importerDomain.ImportJob{
			ID:     uuid.Must(uuid.NewV7()),
			Status: importerDomain.ImportJobStatusCompleted,
		}

		m.importJobRepo.On("GetByID", mock.Anything, job.ID).Return(job, nil).Once()

		found, err := uc.GetImportJob(ctx, job.ID)

		require.NoError(t, err)
		assert.Equal(t, job, found)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		uc, m := newTestImporter()
		jobID := uuid.Must(uuid.NewV7())

		m.importJobRepo.On("GetByID", mock.Anything, jobID).
			Return(nil, importerDomain.ErrImportJobNotFound).Once()

		found, err := uc.GetImportJob(ctx, jobID)

		assert.Nil(t, found)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
