// Package mocks provides mock implementations for testing the importer use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	campaignDomain "github.com/allisson/outreach/internal/campaign/domain"
	importerDomain "github.com/allisson/outreach/internal/importer/domain"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
)

// MockImportJobRepository is a mock implementation of ImportJobRepository for testing.
type MockImportJobRepository struct {
	mock.Mock
}

// Create mocks the Create method of ImportJobRepository.
func (m *MockImportJobRepository) Create(ctx context.Context, j *importerDomain.ImportJob) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

// GetByID mocks the GetByID method of ImportJobRepository.
func (m *MockImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*importerDomain.ImportJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importerDomain.ImportJob), args.Error(1)
}

// Update mocks the Update method of ImportJobRepository.
func (m *MockImportJobRepository) Update(ctx context.Context, j *importerDomain.ImportJob) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

// MockProspectRepository is a mock implementation of ProspectRepository for testing.
type MockProspectRepository struct {
	mock.Mock
}

// Create mocks the Create method of ProspectRepository.
func (m *MockProspectRepository) Create(ctx context.Context, p *prospectDomain.Prospect) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// GetByWebsite mocks the GetByWebsite method of ProspectRepository.
func (m *MockProspectRepository) GetByWebsite(ctx context.Context, website string) (*prospectDomain.Prospect, error) {
	args := m.Called(ctx, website)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prospectDomain.Prospect), args.Error(1)
}

// AttachToCampaign mocks the AttachToCampaign method of ProspectRepository.
func (m *MockProspectRepository) AttachToCampaign(ctx context.Context, prospectID, campaignID uuid.UUID) error {
	args := m.Called(ctx, prospectID, campaignID)
	return args.Error(0)
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

