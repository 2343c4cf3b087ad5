// Package dto provides data transfer objects for webhook request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	correlationDomain "github.com/allisson/outreach/internal/correlation/domain"
)

// InboundEventRequest is the webhook payload the messaging provider delivers
// for a reply.
type InboundEventRequest struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	From           string    `json:"from" binding:"required"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Validate checks if the inbound event request is valid.
func (r *InboundEventRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.From, validation.Required),
	)
}

// ToInboundEvent maps the request to the domain inbound event.
func (r *InboundEventRequest) ToInboundEvent() *correlationDomain.InboundEvent {
	return &correlationDomain.InboundEvent{
		MessageID:      r.MessageID,
		ConversationID: r.ConversationID,
		From:           r.From,
		Subject:        r.Subject,
		Body:           r.Body,
		ReceivedAt:     r.ReceivedAt,
	}
}
