package dto

import (
	correlationDomain "github.com/allisson/outreach/internal/correlation/domain"
)

// MatchResponse reports the correlation outcome for one inbound event.
type MatchResponse struct {
	MatchType  string `json:"match_type"`
	EmailJobID string `json:"email_job_id,omitempty"`
	Analyzed   bool   `json:"analyzed"`
	Reason     string `json:"reason,omitempty"`
}

// MapMatchToResponse maps a domain match to its response representation.
func MapMatchToResponse(match *correlationDomain.Match) MatchResponse {
	response := MatchResponse{
		MatchType: string(match.Type),
		Analyzed:  match.Analyzed,
		Reason:    match.Reason,
	}
	if match.EmailJob != nil {
		response.EmailJobID = match.EmailJob.ID.String()
	}
	return response
}
