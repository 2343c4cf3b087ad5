// Package mocks provides mock implementations for testing the correlation HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	correlationDomain "github.com/allisson/outreach/internal/correlation/domain"
)

// MockCorrelationUseCase is a mock implementation of CorrelationUseCase for testing.
type MockCorrelationUseCase struct {
	mock.Mock
}

// VerifySignature mocks the VerifySignature method of CorrelationUseCase.
func (m *MockCorrelationUseCase) VerifySignature(body []byte, signature string) error {
	args := m.Called(body, signature)
	return args.Error(0)
}

// HandleInboundEvent mocks the HandleInboundEvent method of CorrelationUseCase.
func (m *MockCorrelationUseCase) HandleInboundEvent(ctx context.Context, event *correlationDomain.InboundEvent) (*correlationDomain.Match, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*correlationDomain.Match), args.Error(1)
}

// PollReplies mocks the PollReplies method of CorrelationUseCase.
func (m *MockCorrelationUseCase) PollReplies(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
