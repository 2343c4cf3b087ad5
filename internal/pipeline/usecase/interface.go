// Package usecase implements the campaign pipeline orchestrator: staged
// prospect processing (scrape, analyze, generate, draft), queue-backed email
// generation with a synchronous fallback, pause/resume, progress aggregation
// and the failed-work retry sweeps.
package usecase

import (
	"context"

	"github.com/google/uuid"

	campaignDomain "github.com/allisson/outreach/internal/campaign/domain"
	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
	queueDomain "github.com/allisson/outreach/internal/queue/domain"
	queueUsecase "github.com/allisson/outreach/internal/queue/usecase"
)

// Scraper fetches a prospect's website and returns the raw scraped content.
type Scraper interface {
	ScrapeWebsite(ctx context.Context, url string) (string, error)
}

// EmailGenerator produces the content-generation collaborator calls: business
// analysis from scraped data and personalized email generation.
type EmailGenerator interface {
	AnalyzeBusiness(ctx context.Context, scrapedData, campaignContext string) (string, error)
	GenerateEmail(ctx context.Context, prospect *prospectDomain.Prospect, campaign *campaignDomain.Campaign) (string, error)
}

// Messenger is the messaging-provider surface the pipeline needs: draft
// creation and sending.
type Messenger interface {
	CreateDraft(ctx context.Context, to, body string) (string, error)
	SendDraft(ctx context.Context, draftID string) (*emailjobDomain.SendResult, error)
}

// CampaignRepository defines the campaign persistence operations the
// pipeline depends on.
type CampaignRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*campaignDomain.Campaign, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status campaignDomain.CampaignStatus) error
}

// ProspectRepository defines the prospect persistence operations the
// pipeline depends on.
type ProspectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*prospectDomain.Prospect, error)
	Update(ctx context.Context, p *prospectDomain.Prospect) error
	ListByCampaignAndStatus(ctx context.Context, campaignID uuid.UUID, statuses []prospectDomain.ProspectStatus) ([]*prospectDomain.Prospect, error)
	ListFailedRetryable(ctx context.Context, limit int) ([]*prospectDomain.Prospect, error)
}

// EmailJobRepository defines the email job persistence operations the
// pipeline depends on.
type EmailJobRepository interface {
	Create(ctx context.Context, j *emailjobDomain.EmailJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*emailjobDomain.EmailJob, error)
	GetByProspectAndCampaign(ctx context.Context, prospectID, campaignID uuid.UUID) (*emailjobDomain.EmailJob, error)
	Update(ctx context.Context, j *emailjobDomain.EmailJob) error
	ListFailed(ctx context.Context, maxAttempts, limit int) ([]*emailjobDomain.EmailJob, error)
	ListMissingDraft(ctx context.Context, limit int) ([]*emailjobDomain.EmailJob, error)
	CountByCampaignAndStatus(ctx context.Context, campaignID uuid.UUID) (map[emailjobDomain.EmailJobStatus]int, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*emailjobDomain.EmailJob, error)
}

// Queue is the durable queue surface the pipeline uses: idempotent enqueue
// and inline recovery of jobs stuck in waiting.
type Queue interface {
	Enqueue(ctx context.Context, id, kind, payload string) error
	ProcessStuck(ctx context.Context, handler queueUsecase.Handler, limit int) (int, error)
}

// Result summarizes one ProcessCampaign run.
type Result struct {
	ProspectIDs []uuid.UUID `json:"prospect_ids"`
	Processed   int         `json:"processed"`
	Errors      []string    `json:"errors"`
}

// Progress aggregates a campaign's email job counters into a completion
// percentage.
type Progress struct {
	CampaignID  uuid.UUID                             `json:"campaign_id"`
	Total       int                                   `json:"total"`
	Counts      map[emailjobDomain.EmailJobStatus]int `json:"counts"`
	PercentDone float64                               `json:"percent_done"`
}

// RetryResult summarizes one RetryFailedJobs sweep.
type RetryResult struct {
	RequeuedEmailJobs int      `json:"requeued_email_jobs"`
	ResetProspects    int      `json:"reset_prospects"`
	DraftsCreated     int      `json:"drafts_created"`
	Errors            []string `json:"errors"`
}

// PipelineUseCase defines the interface for campaign pipeline operations.
type PipelineUseCase interface {
	// ProcessCampaign runs the staged pipeline over the campaign's eligible
	// prospects. Individual prospect failures are recorded and never abort
	// the run; a pause request observed between sub-batches stops it early
	// with a partial result.
	ProcessCampaign(ctx context.Context, campaignID uuid.UUID) (*Result, error)
	// PauseCampaign requests a cooperative stop of campaign processing.
	PauseCampaign(ctx context.Context, campaignID uuid.UUID) error
	// ResumeCampaign reactivates a paused campaign.
	ResumeCampaign(ctx context.Context, campaignID uuid.UUID) error
	// Progress reports the campaign's email job counters and completion
	// percentage.
	Progress(ctx context.Context, campaignID uuid.UUID) (*Progress, error)
	// ListEmailJobs returns a page of the campaign's email jobs, newest
	// first.
	ListEmailJobs(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]*emailjobDomain.EmailJob, error)
	// RetryFailedJobs re-queues failed email jobs below the attempt ceiling,
	// resets failed-but-retryable prospects and creates drafts for completed
	// generations that never got one. Each sweep is idempotent.
	RetryFailedJobs(ctx context.Context) (*RetryResult, error)
	// HandleEmailJob is the queue handler for email processing jobs. It is
	// shared by the worker pool and the synchronous fallback path.
	HandleEmailJob(ctx context.Context, job *queueDomain.Job) error
}
