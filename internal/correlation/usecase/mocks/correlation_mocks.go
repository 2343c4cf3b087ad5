// Package mocks provides mock implementations for testing the correlation use case.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	correlationDomain "github.com/allisson/outreach/internal/correlation/domain"
	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
)

// MockEmailJobRepository is a mock implementation of EmailJobRepository for testing.
type MockEmailJobRepository struct {
	mock.Mock
}

// GetByConversationID mocks the GetByConversationID method of EmailJobRepository.
func (m *MockEmailJobRepository) GetByConversationID(ctx context.Context, conversationID string) (*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*emailjobDomain.EmailJob), args.Error(1)
}

// GetByCorrelationID mocks the GetByCorrelationID method of EmailJobRepository.
func (m *MockEmailJobRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*emailjobDomain.EmailJob), args.Error(1)
}

// SetCorrelationID mocks the SetCorrelationID method of EmailJobRepository.
func (m *MockEmailJobRepository) SetCorrelationID(ctx context.Context, id uuid.UUID, correlationID string) error {
	args := m.Called(ctx, id, correlationID)
	return args.Error(0)
}

// MarkAnalyzed mocks the MarkAnalyzed method of EmailJobRepository.
func (m *MockEmailJobRepository) MarkAnalyzed(ctx context.Context, id uuid.UUID, analyzedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, analyzedAt)
	return args.Bool(0), args.Error(1)
}

// ListSentUnanalyzed mocks the ListSentUnanalyzed method of EmailJobRepository.
func (m *MockEmailJobRepository) ListSentUnanalyzed(ctx context.Context, sentAfter time.Time, limit int) ([]*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, sentAfter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*emailjobDomain.EmailJob), args.Error(1)
}

// ListByProspectSentWithin mocks the ListByProspectSentWithin method of EmailJobRepository.
func (m *MockEmailJobRepository) ListByProspectSentWithin(
	ctx context.Context,
	prospectID uuid.UUID,
	from, to time.Time,
) ([]*emailjobDomain.EmailJob, error) {
	args := m.Called(ctx, prospectID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*emailjobDomain.EmailJob), args.Error(1)
}

// MockProspectRepository is a mock implementation of ProspectRepository for testing.
type MockProspectRepository struct {
	mock.Mock
}

// GetByContactEmail mocks the GetByContactEmail method of ProspectRepository.
func (m *MockProspectRepository) GetByContactEmail(ctx context.Context, email string) (*prospectDomain.Prospect, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prospectDomain.Prospect), args.Error(1)
}

// MockMessenger is a mock implementation of Messenger for testing.
type MockMessenger struct {
	mock.Mock
}

// GetRepliesSince mocks the GetRepliesSince method of Messenger.
func (m *MockMessenger) GetRepliesSince(
	ctx context.Context,
	conversationID string,
	since time.Time,
) ([]*correlationDomain.InboundEvent, error) {
	args := m.Called(ctx, conversationID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*correlationDomain.InboundEvent), args.Error(1)
}

// MockReplyAnalyzer is a mock implementation of ReplyAnalyzer for testing.
type MockReplyAnalyzer struct {
	mock.Mock
}

// AnalyzeReply mocks the AnalyzeReply method of ReplyAnalyzer.
func (m *MockReplyAnalyzer) AnalyzeReply(
	ctx context.Context,
	job *emailjobDomain.EmailJob,
	event *correlationDomain.InboundEvent,
) error {
	args := m.Called(ctx, job, event)
	return args.Error(0)
}
