// Package usecase implements the response-correlation engine: webhook
// signature verification, inbound-reply matching against sent email jobs and
// the periodic reply poller.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	correlationDomain "github.com/allisson/outreach/internal/correlation/domain"
	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
)

// EmailJobRepository defines the email job persistence operations the
// correlation engine depends on.
type EmailJobRepository interface {
	GetByConversationID(ctx context.Context, conversationID string) (*emailjobDomain.EmailJob, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*emailjobDomain.EmailJob, error)
	SetCorrelationID(ctx context.Context, id uuid.UUID, correlationID string) error
	MarkAnalyzed(ctx context.Context, id uuid.UUID, analyzedAt time.Time) (bool, error)
	ListSentUnanalyzed(ctx context.Context, sentAfter time.Time, limit int) ([]*emailjobDomain.EmailJob, error)
	ListByProspectSentWithin(ctx context.Context, prospectID uuid.UUID, from, to time.Time) ([]*emailjobDomain.EmailJob, error)
}

// ProspectRepository defines the prospect lookup the matcher depends on.
type ProspectRepository interface {
	GetByContactEmail(ctx context.Context, email string) (*prospectDomain.Prospect, error)
}

// Messenger is the messaging-provider surface the poller needs.
type Messenger interface {
	GetRepliesSince(ctx context.Context, conversationID string, since time.Time) ([]*correlationDomain.InboundEvent, error)
}

// ReplyAnalyzer analyzes a correlated reply. It is called at most once per
// email job.
type ReplyAnalyzer interface {
	AnalyzeReply(ctx context.Context, job *emailjobDomain.EmailJob, event *correlationDomain.InboundEvent) error
}

// CorrelationUseCase defines the interface for response correlation.
type CorrelationUseCase interface {
	// VerifySignature checks the webhook HMAC-SHA256 signature over the raw
	// request body.
	VerifySignature(body []byte, signature string) error
	// HandleInboundEvent correlates one reply with a sent email job and
	// triggers the analysis exactly once per job. An unmatched event is a
	// normal outcome, not an error.
	HandleInboundEvent(ctx context.Context, event *correlationDomain.InboundEvent) (*correlationDomain.Match, error)
	// PollReplies sweeps recently sent, unanalyzed jobs for replies the
	// webhook missed. Returns how many events were matched.
	PollReplies(ctx context.Context) (int, error)
}
