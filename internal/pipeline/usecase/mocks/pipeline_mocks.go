// Package mocks provides mock implementations for testing the pipeline use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	campaignDomain "github.com/allisson/outreach/internal/campaign/domain"
	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
	queueUsecase "github.com/allisson/outreach/internal/queue/usecase"
)

// MockScraper is a mock implementation of Scraper for testing.
type MockScraper struct {
	mock.Mock
}

// ScrapeWebsite mocks the ScrapeWebsite method of Scraper.
func (m *MockScraper) ScrapeWebsite(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

// MockEmailGenerator is a mock implementation of EmailGenerator for testing.
type MockEmailGenerator struct {
	mock.Mock
}

// AnalyzeBusiness mocks the AnalyzeBusiness method of EmailGenerator.
func (m *MockEmailGenerator) AnalyzeBusiness(ctx context.Context, scrapedData, campaignContext string) (string, error) {
	args := m.Called(ctx, scrapedData, campaignContext)
	return args.String(0), args.Error(1)
}

// GenerateEmail mocks the GenerateEmail method of EmailGenerator.
func (m *MockEmailGenerator) GenerateEmail(
	ctx context.Context,
	prospect *prospectDomain.Prospect,
	campaign *campaignDomain.Campaign,
) (string, error) {
	args := m.Called(ctx, prospect, campaign)
	return args.String(0), args.Error(1)
}

// MockMessenger is a mock implementation of Messenger for testing.
type MockMessenger struct {
	mock.Mock
}

// CreateDraft mocks the CreateDraft method of Messenger.
func (m *MockMessenger) CreateDraft(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

// SendDraft mocks the SendDraft method of Messenger.
func (m *MockMessenger) SendDraft(ctx context.Context, draftID string) (*emailjobDomain.SendResult, error) {
	args := m.Called(ctx, draftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*emailjobDomain.SendResult), args.Error(1)
}

// MockCampaignRepository is a mock implementation of CampaignRepository for testing.
type MockCampaignRepository struct {
	mock.Mock
}

// GetByID mocks the GetByID method of CampaignRepository.
func (m *MockCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*campaignDomain.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaignDomain.Campaign), args.Error(1)
}

// UpdateStatus mocks the UpdateStatus method of CampaignRepository.
func (m *MockCampaignRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status campaignDomain.CampaignStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockProspectRepository is a mock implementation of ProspectRepository for testing.
type MockProspectRepository struct {
	mock.Mock
}

// GetByID mocks the GetByID method of ProspectRepository.
func (m *MockProspectRepository) GetByID(ctx context.Context, id uuid.UUID) (*prospectDomain.Prospect, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prospectDomain.Prospect), args.Error(1)
}

// Update mocks the Update method of ProspectRepository.
func (m *MockProspectRepository) Update(ctx context.Context, p *prospectDomain.Prospect) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// ListByCampaignAndStatus mocks the ListByCampaignAndStatus method of ProspectRepository.
func (m *MockProspectRepository) ListByCampaignAndStatus(
	ctx context.Context,
	campaignID uuid.UUID,
	statuses []prospectDomain.ProspectStatus,
) ([]*prospectDomain.Prospect, error) {
	args := m.Called(ctx, campaignID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*prospectDomain.Prospect), args.Error(1)
}

// ListFailedRetryable mocks the ListFailedRetryable method of ProspectRepository.
func (m *MockProspectRepository) ListFailedRetryable(ctx context.Context, limit int) ([]*prospectDomain.Prospect, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*prospectDomain.Prospect), args.Error(1)
}

// MockEmailJobRepository is a mock implementation of EmailJobRepository for testing.
type MockEmailJobRepository struct {
	mock.Mock
}

// Create mocks the Create method of EmailJobRepository.
func (m *MockEmailJobRepository) Create(ctx context.Context, j *emailjobDomain.EmailJob) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

// GetByID mocks the GetByID method of EmailJobRepository.
func (m *MockEmailJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*emailjobDomain.EmailJob), args.Error(1)
}

// GetByProspectAndCampaign mocks the GetByProspectAndCampaign method of EmailJobRepository.
func (m *MockEmailJobRepository) GetByProspectAndCampaign(
	ctx context.Context,
	prospectID, campaignID uuid.UUID,
) (*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, prospectID, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*emailjobDomain.EmailJob), args.Error(1)
}

// Update mocks the Update method of EmailJobRepository.
func (m *MockEmailJobRepository) Update(ctx context.Context, j *emailjobDomain.EmailJob) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

// ListFailed mocks the ListFailed method of EmailJobRepository.
func (m *MockEmailJobRepository) ListFailed(ctx context.Context, maxAttempts, limit int) ([]*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*emailjobDomain.EmailJob), args.Error(1)
}

// ListMissingDraft mocks the ListMissingDraft method of EmailJobRepository.
func (m *MockEmailJobRepository) ListMissingDraft(ctx context.Context, limit int) ([]*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*emailjobDomain.EmailJob), args.Error(1)
}

// CountByCampaignAndStatus mocks the CountByCampaignAndStatus method of EmailJobRepository.
func (m *MockEmailJobRepository) CountByCampaignAndStatus(
	ctx context.Context,
	campaignID uuid.UUID,
) (map[emailjobDomain.EmailJobStatus]int, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[emailjobDomain.EmailJobStatus]int), args.Error(1)
}

// ListByCampaign mocks the ListByCampaign method of EmailJobRepository.
func (m *MockEmailJobRepository) ListByCampaign(
	ctx context.Context,
	campaignID uuid.UUID,
	offset, limit int,
) ([]*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, campaignID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*emailjobDomain.EmailJob), args.Error(1)
}

// MockQueue is a mock implementation of Queue for testing.
type MockQueue struct {
	mock.Mock
}

// Enqueue mocks the Enqueue method of Queue.
func (m *MockQueue) Enqueue(ctx context.Context, id, kind, payload string) error {
	args := m.Called(ctx, id, kind, payload)
	return args.Error(0)
}

// ProcessStuck mocks the ProcessStuck method of Queue.
func (m *MockQueue) ProcessStuck(ctx context.Context, handler queueUsecase.Handler, limit int) (int, error) {
	args := m.Called(ctx, handler, limit)
	return args.Int(0), args.Error(1)
}
