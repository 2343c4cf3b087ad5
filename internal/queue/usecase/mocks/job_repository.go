// Package mocks provides mock implementations for testing the queue use case.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	queueDomain "github.com/allisson/outreach/internal/queue/domain"
)

// MockJobRepository is a mock implementation of JobRepository for testing.
type MockJobRepository struct {
	mock.Mock
}

// Insert mocks the Insert method of JobRepository.
func (m *MockJobRepository) Insert(ctx context.Context, job *queueDomain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// ClaimNext mocks the ClaimNext method of JobRepository.
func (m *MockJobRepository) ClaimNext(ctx context.Context, now time.Time) (*queueDomain.Job, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queueDomain.Job), args.Error(1)
}

// ClaimByID mocks the ClaimByID method of JobRepository.
func (m *MockJobRepository) ClaimByID(ctx context.Context, id string) (*queueDomain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queueDomain.Job), args.Error(1)
}

// GetByID mocks the GetByID method of JobRepository.
func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*queueDomain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queueDomain.Job), args.Error(1)
}

// MarkCompleted mocks the MarkCompleted method of JobRepository.
func (m *MockJobRepository) MarkCompleted(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MarkFailed mocks the MarkFailed method of JobRepository.
func (m *MockJobRepository) MarkFailed(ctx context.Context, id, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

// Reschedule mocks the Reschedule method of JobRepository.
func (m *MockJobRepository) Reschedule(ctx context.Context, id, errMsg string, nextAttemptAt time.Time) error {
	args := m.Called(ctx, id, errMsg, nextAttemptAt)
	return args.Error(0)
}

// Stats mocks the Stats method of JobRepository.
func (m *MockJobRepository) Stats(ctx context.Context) (*queueDomain.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queueDomain.Stats), args.Error(1)
}

// ListStuckWaiting mocks the ListStuckWaiting method of JobRepository.
func (m *MockJobRepository) ListStuckWaiting(ctx context.Context, dueBefore time.Time, limit int) ([]*queueDomain.Job, error) {
	args := m.Called(ctx, dueBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*queueDomain.Job), args.Error(1)
}

// PruneCompleted mocks the PruneCompleted method of JobRepository.
func (m *MockJobRepository) PruneCompleted(ctx context.Context, keep int) (int64, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(int64), args.Error(1)
}
