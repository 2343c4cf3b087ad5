// Package dto provides data transfer objects for pipeline HTTP responses.
package dto

import (
	"time"

	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	pipelineUseCase "github.com/allisson/outreach/internal/pipeline/usecase"
	queueDomain "github.com/allisson/outreach/internal/queue/domain"
)

// CampaignStatusResponse reports a campaign's status after a lifecycle
// operation.
type CampaignStatusResponse struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
}

// ProcessCampaignResponse summarizes one processing run in API responses.
type ProcessCampaignResponse struct {
	CampaignID string   `json:"campaign_id"`
	Eligible   int      `json:"eligible"`
	Processed  int      `json:"processed"`
	Errors     []string `json:"errors"`
}

// MapResultToResponse converts a processing result to its response
// representation.
func MapResultToResponse(campaignID string, result *pipelineUseCase.Result) ProcessCampaignResponse {
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return ProcessCampaignResponse{
		CampaignID: campaignID,
		Eligible:   len(result.ProspectIDs),
		Processed:  result.Processed,
		Errors:     errs,
	}
}

// ProgressResponse reports a campaign's email job counters and completion
// percentage.
type ProgressResponse struct {
	CampaignID  string         `json:"campaign_id"`
	Total       int            `json:"total"`
	Counts      map[string]int `json:"counts"`
	PercentDone float64        `json:"percent_done"`
}

// MapProgressToResponse converts campaign progress to its response
// representation.
func MapProgressToResponse(progress *pipelineUseCase.Progress) ProgressResponse {
	counts := make(map[string]int, len(progress.Counts))
	for status, n := range progress.Counts {
		counts[string(status)] = n
	}
	return ProgressResponse{
		CampaignID:  progress.CampaignID.String(),
		Total:       progress.Total,
		Counts:      counts,
		PercentDone: progress.PercentDone,
	}
}

// RetryResponse summarizes one retry sweep in API responses.
type RetryResponse struct {
	RequeuedEmailJobs int      `json:"requeued_email_jobs"`
	ResetProspects    int      `json:"reset_prospects"`
	DraftsCreated     int      `json:"drafts_created"`
	Errors            []string `json:"errors"`
}

// MapRetryResultToResponse converts a retry sweep result to its response
// representation.
func MapRetryResultToResponse(result *pipelineUseCase.RetryResult) RetryResponse {
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return RetryResponse{
		RequeuedEmailJobs: result.RequeuedEmailJobs,
		ResetProspects:    result.ResetProspects,
		DraftsCreated:     result.DraftsCreated,
		Errors:            errs,
	}
}

// EmailJobResponse represents an email job in API responses.
type EmailJobResponse struct {
	ID             string     `json:"id"`
	ProspectID     string     `json:"prospect_id"`
	CampaignID     string     `json:"campaign_id"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	LastError      *string    `json:"last_error,omitempty"`
	DraftID        string     `json:"draft_id,omitempty"`
	MessageID      string     `json:"message_id,omitempty"`
	ConversationID string     `json:"conversation_id,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	AnalyzedAt     *time.Time `json:"analyzed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ListEmailJobsResponse represents a paginated list of email jobs in API
// responses.
type ListEmailJobsResponse struct {
	Data []EmailJobResponse `json:"data"`
}

// MapEmailJobsToListResponse converts a slice of domain email jobs to a list
// response.
func MapEmailJobsToListResponse(jobs []*emailjobDomain.EmailJob) ListEmailJobsResponse {
	data := make([]EmailJobResponse, 0, len(jobs))
	for _, job := range jobs {
		data = append(data, EmailJobResponse{
			ID:             job.ID.String(),
			ProspectID:     job.ProspectID.String(),
			CampaignID:     job.CampaignID.String(),
			Status:         string(job.Status),
			Attempts:       job.Attempts,
			LastError:      job.LastError,
			DraftID:        job.DraftID,
			MessageID:      job.MessageID,
			ConversationID: job.ConversationID,
			SentAt:         job.SentAt,
			AnalyzedAt:     job.AnalyzedAt,
			CreatedAt:      job.CreatedAt,
		})
	}

	return ListEmailJobsResponse{
		Data: data,
	}
}

// QueueStatsResponse reports the queue's per-status counters.
type QueueStatsResponse struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// MapStatsToResponse converts queue stats to their response representation.
func MapStatsToResponse(stats *queueDomain.Stats) QueueStatsResponse {
	return QueueStatsResponse{
		Waiting:   stats.Waiting,
		Active:    stats.Active,
		Completed: stats.Completed,
		Failed:    stats.Failed,
	}
}
