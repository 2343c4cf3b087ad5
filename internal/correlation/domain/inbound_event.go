// Package domain defines the response-correlation entities: inbound reply
// events and their match outcomes.
package domain

import (
	"time"

	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
)

// InboundEvent is one reply delivered by the messaging provider, via webhook
// or poll.
type InboundEvent struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	From           string    `json:"from"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	ReceivedAt     time.Time `json:"received_at"`
}

// MatchType tags how (or whether) an inbound event was correlated.
type MatchType string

const (
	// MatchTypeStoredID means the event carried an id already stored on a job.
	MatchTypeStoredID MatchType = "stored_id"
	// MatchTypeParticipantWindow means the sender plus the send-time window
	// identified the job.
	MatchTypeParticipantWindow MatchType = "participant_window"
	// MatchTypeUnmatched means no job could be correlated.
	MatchTypeUnmatched MatchType = "unmatched"
)

// Match is the correlation outcome for one inbound event.
type Match struct {
	Type MatchType
	// EmailJob is set for matched events.
	EmailJob *emailjobDomain.EmailJob
	// Analyzed reports whether this event won the right to trigger analysis.
	Analyzed bool
	// Reason explains an unmatched outcome.
	Reason string
}

// Matched reports whether a job was correlated.
func (m *Match) Matched() bool {
	return m.Type != MatchTypeUnmatched
}
