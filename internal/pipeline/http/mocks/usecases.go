// Package mocks provides mock implementations for testing the pipeline HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	pipelineUseCase "github.com/allisson/outreach/internal/pipeline/usecase"
	queueDomain "github.com/allisson/outreach/internal/queue/domain"
	queueUseCase "github.com/allisson/outreach/internal/queue/usecase"
)

// MockPipelineUseCase is a mock implementation of PipelineUseCase for testing.
type MockPipelineUseCase struct {
	mock.Mock
}

// ProcessCampaign mocks the ProcessCampaign method of PipelineUseCase.
func (m *MockPipelineUseCase) ProcessCampaign(ctx context.Context, campaignID uuid.UUID) (*pipelineUseCase.Result, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineUseCase.Result), args.Error(1)
}

// PauseCampaign mocks the PauseCampaign method of PipelineUseCase.
func (m *MockPipelineUseCase) PauseCampaign(ctx context.Context, campaignID uuid.UUID) error {
	args := m.Called(ctx, campaignID)
	return args.Error(0)
}

// ResumeCampaign mocks the ResumeCampaign method of PipelineUseCase.
func (m *MockPipelineUseCase) ResumeCampaign(ctx context.Context, campaignID uuid.UUID) error {
	args := m.Called(ctx, campaignID)
	return args.Error(0)
}

// Progress mocks the Progress method of PipelineUseCase.
func (m *MockPipelineUseCase) Progress(ctx context.Context, campaignID uuid.UUID) (*pipelineUseCase.Progress, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineUseCase.Progress), args.Error(1)
}

// ListEmailJobs mocks the ListEmailJobs method of PipelineUseCase.
func (m *MockPipelineUseCase) ListEmailJobs(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, campaignID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*emailjobDomain.EmailJob), args.Error(1)
}

// RetryFailedJobs mocks the RetryFailedJobs method of PipelineUseCase.
func (m *MockPipelineUseCase) RetryFailedJobs(ctx context.Context) (*pipelineUseCase.RetryResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipelineUseCase.RetryResult), args.Error(1)
}

// HandleEmailJob mocks the HandleEmailJob method of PipelineUseCase.
func (m *MockPipelineUseCase) HandleEmailJob(ctx context.Context, job *queueDomain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockQueueUseCase is a mock implementation of QueueUseCase for testing.
type MockQueueUseCase struct {
	mock.Mock
}

// Enqueue mocks the Enqueue method of QueueUseCase.
func (m *MockQueueUseCase) Enqueue(ctx context.Context, id, kind, payload string) error {
	args := m.Called(ctx, id, kind, payload)
	return args.Error(0)
}

// Run mocks the Run method of QueueUseCase.
func (m *MockQueueUseCase) Run(ctx context.Context, handler queueUseCase.Handler) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

// ProcessStuck mocks the ProcessStuck method of QueueUseCase.
func (m *MockQueueUseCase) ProcessStuck(ctx context.Context, handler queueUseCase.Handler, limit int) (int, error) {
	args := m.Called(ctx, handler, limit)
	return args.Int(0), args.Error(1)
}

// Stats mocks the Stats method of QueueUseCase.
func (m *MockQueueUseCase) Stats(ctx context.Context) (*queueDomain.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queueDomain.Stats), args.Error(1)
}

// GetJob mocks the GetJob method of QueueUseCase.
func (m *MockQueueUseCase) GetJob(ctx context.Context, id string) (*queueDomain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queueDomain.Job), args.Error(1)
}

// Prune mocks the Prune method of QueueUseCase.
func (m *MockQueueUseCase) Prune(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
