package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	campaignDomain "github.com/allisson/outreach/internal/campaign/domain"
	"github.com/allisson/outreach/internal/classify"
	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
)

// emailJobKind is the queue job kind for email generation work.
const emailJobKind = "email_processing"

// retrySweepLimit bounds how much failed work one RetryFailedJobs call picks up.
const retrySweepLimit = 100

// eligibleStatuses are the prospect statuses ProcessCampaign picks up: every
// non-terminal point in the stage ladder.
var eligibleStatuses = []prospectDomain.ProspectStatus{
	prospectDomain.ProspectStatusPending,
	prospectDomain.ProspectStatusScraped,
	prospectDomain.ProspectStatusAnalyzed,
	prospectDomain.ProspectStatusEmailGenerated,
}

// pipelineUseCase implements the PipelineUseCase interface.
type pipelineUseCase struct {
	campaignRepo CampaignRepository
	prospectRepo ProspectRepository
	emailJobRepo EmailJobRepository
	queue        Queue
	scraper      Scraper
	generator    EmailGenerator
	messenger    Messenger
	logger       *slog.Logger
	batchSize    int
	limiter      *rate.Limiter
	stageTimeout time.Duration
	maxAttempts  int
	// sleep is replaceable so tests do not wait out real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPipelineUseCase creates a new pipeline use case instance.
func NewPipelineUseCase(
	campaignRepo CampaignRepository,
	prospectRepo ProspectRepository,
	emailJobRepo EmailJobRepository,
	queue Queue,
	scraper Scraper,
	generator EmailGenerator,
	messenger Messenger,
	logger *slog.Logger,
	batchSize int,
	batchesPerSec float64,
	stageTimeout time.Duration,
	maxAttempts int,
) PipelineUseCase {
	return &pipelineUseCase{
		campaignRepo: campaignRepo,
		prospectRepo: prospectRepo,
		emailJobRepo: emailJobRepo,
		queue:        queue,
		scraper:      scraper,
		generator:    generator,
		messenger:    messenger,
		logger:       logger,
		batchSize:    batchSize,
		limiter:      rate.NewLimiter(rate.Limit(batchesPerSec), 1),
		stageTimeout: stageTimeout,
		maxAttempts:  maxAttempts,
		sleep:        sleepContext,
	}
}

// ProcessCampaign runs the scrape, analyze, generate and draft stages over
// the campaign's eligible prospects in paced sub-batches. A failing prospect
// is recorded and skipped by later stages; the run itself only errors on
// infrastructure problems that affect every prospect.
func (u *pipelineUseCase) ProcessCampaign(ctx context.Context, campaignID uuid.UUID) (*Result, error) {
	campaign, err := u.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != campaignDomain.CampaignStatusActive {
		return nil, apperrors.Wrapf(campaignDomain.ErrCampaignNotActive, "campaign %s is %s", campaign.ID, campaign.Status)
	}

	prospects, err := u.prospectRepo.ListByCampaignAndStatus(ctx, campaignID, eligibleStatuses)
	if err != nil {
		return nil, err
	}

	result := &Result{ProspectIDs: make([]uuid.UUID, 0, len(prospects)), Errors: []string{}}
	for _, p := range prospects {
		result.ProspectIDs = append(result.ProspectIDs, p.ID)
	}
	failed := make(map[uuid.UUID]struct{})

	u.logger.Info("processing campaign",
		"campaign_id", campaignID,
		"eligible_prospects", len(prospects),
	)

	paused, err := u.runBatches(ctx, campaign, prospectDomain.StageScrape,
		filterByStatus(prospects, prospectDomain.ProspectStatusPending), result, failed,
		func(ctx context.Context, p *prospectDomain.Prospect) error {
			return u.scrapeProspect(ctx, p)
		})
	if err != nil || paused {
		return u.finish(result, failed, paused), err
	}

	paused, err = u.runBatches(ctx, campaign, prospectDomain.StageAnalyze,
		filterByStatus(prospects, prospectDomain.ProspectStatusScraped), result, failed,
		func(ctx context.Context, p *prospectDomain.Prospect) error {
			return u.analyzeProspect(ctx, p, campaign)
		})
	if err != nil || paused {
		return u.finish(result, failed, paused), err
	}

	paused, err = u.runBatches(ctx, campaign, prospectDomain.StageGenerate,
		filterByStatus(prospects, prospectDomain.ProspectStatusAnalyzed), result, failed,
		func(ctx context.Context, p *prospectDomain.Prospect) error {
			return u.enqueueEmailJob(ctx, p, campaign)
		})
	if err != nil || paused {
		return u.finish(result, failed, paused), err
	}

	// Jobs sitting in waiting past the grace period mean no worker is
	// draining the queue; process them inline so the run still makes
	// progress.
	recovered, err := u.queue.ProcessStuck(ctx, u.HandleEmailJob, u.batchSize)
	if err != nil {
		u.logger.Error("stuck job recovery failed", "campaign_id", campaignID, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("stuck job recovery: %v", err))
	} else if recovered > 0 {
		u.logger.Info("recovered stuck email jobs inline", "campaign_id", campaignID, "count", recovered)
	}

	// The generate stage advances prospects asynchronously, so re-read who
	// is ready for drafting instead of trusting the in-memory copies.
	ready, err := u.prospectRepo.ListByCampaignAndStatus(ctx, campaignID,
		[]prospectDomain.ProspectStatus{prospectDomain.ProspectStatusEmailGenerated})
	if err != nil {
		return u.finish(result, failed, false), err
	}

	paused, err = u.runBatches(ctx, campaign, prospectDomain.StageDraft, ready, result, failed,
		func(ctx context.Context, p *prospectDomain.Prospect) error {
			job, jerr := u.emailJobRepo.GetByProspectAndCampaign(ctx, p.ID, campaign.ID)
			if jerr != nil {
				return jerr
			}
			return u.draftAndSend(ctx, p, job)
		})
	return u.finish(result, failed, paused), err
}

// PauseCampaign requests a cooperative stop: the status flip is observed by
// ProcessCampaign at the next sub-batch boundary.
func (u *pipelineUseCase) PauseCampaign(ctx context.Context, campaignID uuid.UUID) error {
	return u.transitionCampaign(ctx, campaignID, campaignDomain.CampaignStatusPaused)
}

// ResumeCampaign reactivates a paused campaign. In-flight work is not
// replayed; the next ProcessCampaign run picks up where the stages left off.
func (u *pipelineUseCase) ResumeCampaign(ctx context.Context, campaignID uuid.UUID) error {
	return u.transitionCampaign(ctx, campaignID, campaignDomain.CampaignStatusActive)
}

// Progress aggregates the campaign's email job counters into a completion
// percentage, counting terminal jobs as done.
func (u *pipelineUseCase) Progress(ctx context.Context, campaignID uuid.UUID) (*Progress, error) {
	if _, err := u.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}

	counts, err := u.emailJobRepo.CountByCampaignAndStatus(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	done := counts[emailjobDomain.EmailJobStatusCompleted] + counts[emailjobDomain.EmailJobStatusFailed]

	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total) * 100
	}

	return &Progress{
		CampaignID:  campaignID,
		Total:       total,
		Counts:      counts,
		PercentDone: percent,
	}, nil
}

// ListEmailJobs returns a page of the campaign's email jobs, newest first.
func (u *pipelineUseCase) ListEmailJobs(
	ctx context.Context,
	campaignID uuid.UUID,
	offset, limit int,
) ([]*emailjobDomain.EmailJob, error) {
	if _, err := u.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}

	return u.emailJobRepo.ListByCampaign(ctx, campaignID, offset, limit)
}

// RetryFailedJobs runs the three retry sweeps. Each sweep only touches work
// in the exact state it repairs, so running the sweep twice changes nothing.
func (u *pipelineUseCase) RetryFailedJobs(ctx context.Context) (*RetryResult, error) {
	result := &RetryResult{Errors: []string{}}

	jobs, err := u.emailJobRepo.ListFailed(ctx, u.maxAttempts, retrySweepLimit)
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if err := u.requeueEmailJob(ctx, job); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("requeue email job %s: %v", job.ID, err))
			continue
		}
		result.RequeuedEmailJobs++
	}

	prospects, err := u.prospectRepo.ListFailedRetryable(ctx, retrySweepLimit)
	if err != nil {
		return nil, err
	}
	for _, p := range prospects {
		if err := p.ResetForRetry(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("reset prospect %s: %v", p.ID, err))
			continue
		}
		if err := u.prospectRepo.Update(ctx, p); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("reset prospect %s: %v", p.ID, err))
			continue
		}
		result.ResetProspects++
	}

	missing, err := u.emailJobRepo.ListMissingDraft(ctx, retrySweepLimit)
	if err != nil {
		return nil, err
	}
	for _, job := range missing {
		p, perr := u.prospectRepo.GetByID(ctx, job.ProspectID)
		if perr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("draft email job %s: %v", job.ID, perr))
			continue
		}
		if err := u.draftAndSend(ctx, p, job); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("draft email job %s: %v", job.ID, err))
			continue
		}
		result.DraftsCreated++
	}

	u.logger.Info("retry sweep finished",
		"requeued_email_jobs", result.RequeuedEmailJobs,
		"reset_prospects", result.ResetProspects,
		"drafts_created", result.DraftsCreated,
		"errors", len(result.Errors),
	)
	return result, nil
}

// runBatches drives one stage over the given prospects in paced sub-batches,
// checking for a pause request at every batch boundary. Per-prospect errors
// are recorded in the result; only context cancellation aborts.
func (u *pipelineUseCase) runBatches(
	ctx context.Context,
	campaign *campaignDomain.Campaign,
	stage prospectDomain.Stage,
	prospects []*prospectDomain.Prospect,
	result *Result,
	failed map[uuid.UUID]struct{},
	fn func(ctx context.Context, p *prospectDomain.Prospect) error,
) (bool, error) {
	for start := 0; start < len(prospects); start += u.batchSize {
		if err := u.limiter.Wait(ctx); err != nil {
			return false, err
		}

		current, err := u.campaignRepo.GetByID(ctx, campaign.ID)
		if err != nil {
			return false, err
		}
		if current.Status != campaignDomain.CampaignStatusActive {
			u.logger.Info("campaign no longer active, stopping stage",
				"campaign_id", campaign.ID,
				"stage", stage,
				"status", current.Status,
			)
			return true, nil
		}

		end := min(start+u.batchSize, len(prospects))
		for _, p := range prospects[start:end] {
			if err := fn(ctx, p); err != nil {
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				failed[p.ID] = struct{}{}
				result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", stage, p.ID, err))
			}
		}
	}
	return false, nil
}

// scrapeProspect runs the scrape stage with inline retries: transient
// failures are re-attempted after a jittered backoff until the error type's
// retry budget runs out.
func (u *pipelineUseCase) scrapeProspect(ctx context.Context, p *prospectDomain.Prospect) error {
	for {
		stageCtx, cancel := context.WithTimeout(ctx, u.stageTimeout)
		data, err := u.scraper.ScrapeWebsite(stageCtx, p.Website)
		cancel()

		if err == nil {
			p.ScrapedData = data
			if aerr := p.ApplyStageSuccess(prospectDomain.StageScrape); aerr != nil {
				return aerr
			}
			return u.prospectRepo.Update(ctx, p)
		}

		ce := classify.ClassifyError(err)
		if aerr := p.ApplyStageFailure(prospectDomain.StageScrape, ce, time.Now().UTC()); aerr != nil {
			return aerr
		}
		if uerr := u.prospectRepo.Update(ctx, p); uerr != nil {
			return uerr
		}

		if !classify.ShouldRetry(ce, p.RetryCount) {
			u.logger.Error("prospect scrape failed",
				"prospect_id", p.ID,
				"error_type", ce.Type,
				"retry_count", p.RetryCount,
				"error", ce.Message,
			)
			return ce
		}

		u.logger.Warn("prospect scrape failed, retrying",
			"prospect_id", p.ID,
			"error_type", ce.Type,
			"retry_count", p.RetryCount,
		)
		if serr := u.sleep(ctx, classify.BackoffDelay(ce, p.RetryCount)); serr != nil {
			return serr
		}
		if rerr := p.ResetForRetry(); rerr != nil {
			return rerr
		}
		if uerr := u.prospectRepo.Update(ctx, p); uerr != nil {
			return uerr
		}
	}
}

// analyzeProspect derives the business analysis from the scraped data.
func (u *pipelineUseCase) analyzeProspect(ctx context.Context, p *prospectDomain.Prospect, campaign *campaignDomain.Campaign) error {
	stageCtx, cancel := context.WithTimeout(ctx, u.stageTimeout)
	analysis, err := u.generator.AnalyzeBusiness(stageCtx, p.ScrapedData, campaign.Context)
	cancel()

	if err != nil {
		ce := classify.ClassifyError(err)
		u.recordProspectFailure(ctx, p, prospectDomain.StageAnalyze, ce)
		return ce
	}

	p.Analysis = analysis
	if err := p.ApplyStageSuccess(prospectDomain.StageAnalyze); err != nil {
		return err
	}
	return u.prospectRepo.Update(ctx, p)
}

// enqueueEmailJob creates the prospect's email job record and enqueues the
// generation work. An already existing non-terminal job is re-enqueued,
// which the queue turns into a no-op when the entry is still there.
func (u *pipelineUseCase) enqueueEmailJob(ctx context.Context, p *prospectDomain.Prospect, campaign *campaignDomain.Campaign) error {
	job := &emailjobDomain.EmailJob{
		ID:         uuid.Must(uuid.NewV7()),
		ProspectID: p.ID,
		CampaignID: campaign.ID,
		Status:     emailjobDomain.EmailJobStatusQueued,
	}

	err := u.emailJobRepo.Create(ctx, job)
	switch {
	case err == nil:
	case apperrors.Is(err, apperrors.ErrConflict):
		job, err = u.emailJobRepo.GetByProspectAndCampaign(ctx, p.ID, campaign.ID)
		if err != nil {
			return err
		}
	default:
		return err
	}

	if job.Status.Terminal() {
		// A completed or failed job is never resurrected here; the retry
		// sweep owns failed jobs.
		return nil
	}

	return u.queue.Enqueue(ctx, queueJobID(job), emailJobKind, emailJobPayloadJSON(job.ID))
}

// draftAndSend creates the messaging draft for a completed generation, sends
// it and advances the prospect. Draft creation and send are persisted
// separately so a crash between them cannot create a second draft.
func (u *pipelineUseCase) draftAndSend(ctx context.Context, p *prospectDomain.Prospect, job *emailjobDomain.EmailJob) error {
	if job.GeneratedEmail == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "email job %s has no generated email", job.ID)
	}

	if job.DraftID == "" {
		stageCtx, cancel := context.WithTimeout(ctx, u.stageTimeout)
		draftID, err := u.messenger.CreateDraft(stageCtx, p.ContactEmail, job.GeneratedEmail)
		cancel()
		if err != nil {
			ce := classify.ClassifyError(err)
			u.recordProspectFailure(ctx, p, prospectDomain.StageDraft, ce)
			return ce
		}
		job.DraftID = draftID
		if err := u.emailJobRepo.Update(ctx, job); err != nil {
			return err
		}
	}

	stageCtx, cancel := context.WithTimeout(ctx, u.stageTimeout)
	sent, err := u.messenger.SendDraft(stageCtx, job.DraftID)
	cancel()
	if err != nil {
		ce := classify.ClassifyError(err)
		u.recordProspectFailure(ctx, p, prospectDomain.StageDraft, ce)
		return ce
	}

	job.MarkSent(sent.MessageID, sent.ConversationID, sent.SentAt)
	if err := u.emailJobRepo.Update(ctx, job); err != nil {
		return err
	}

	if p.Status == prospectDomain.ProspectStatusEmailGenerated {
		if err := p.ApplyStageSuccess(prospectDomain.StageDraft); err != nil {
			return err
		}
		return u.prospectRepo.Update(ctx, p)
	}
	return nil
}

// requeueEmailJob moves one failed job below the attempt ceiling back to
// queued and enqueues a fresh queue entry for it.
func (u *pipelineUseCase) requeueEmailJob(ctx context.Context, job *emailjobDomain.EmailJob) error {
	if err := job.RequeueForRetry(u.maxAttempts); err != nil {
		return err
	}
	if err := u.emailJobRepo.Update(ctx, job); err != nil {
		return err
	}
	return u.queue.Enqueue(ctx, queueJobID(job), emailJobKind, emailJobPayloadJSON(job.ID))
}

// transitionCampaign applies a validated status change.
func (u *pipelineUseCase) transitionCampaign(ctx context.Context, campaignID uuid.UUID, to campaignDomain.CampaignStatus) error {
	campaign, err := u.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if err := campaign.Transition(to); err != nil {
		return err
	}
	return u.campaignRepo.UpdateStatus(ctx, campaignID, campaign.Status)
}

// recordProspectFailure moves the prospect to failed with the classified
// error and persists it. Bookkeeping problems are logged, not propagated:
// the stage error itself is what the caller reports.
func (u *pipelineUseCase) recordProspectFailure(ctx context.Context, p *prospectDomain.Prospect, stage prospectDomain.Stage, ce *classify.ClassifiedError) {
	if err := p.ApplyStageFailure(stage, ce, time.Now().UTC()); err != nil {
		u.logger.Error("record prospect failure", "prospect_id", p.ID, "stage", stage, "error", err)
		return
	}
	if err := u.prospectRepo.Update(ctx, p); err != nil {
		u.logger.Error("persist prospect failure", "prospect_id", p.ID, "stage", stage, "error", err)
	}
}

// finish fills in the processed counter: eligible prospects that did not
// fail during the run.
func (u *pipelineUseCase) finish(result *Result, failed map[uuid.UUID]struct{}, paused bool) *Result {
	result.Processed = len(result.ProspectIDs) - len(failed)
	if paused {
		u.logger.Info("campaign processing stopped by pause request",
			"processed", result.Processed,
			"errors", len(result.Errors),
		)
	}
	return result
}

// queueJobID derives the queue idempotency key for an email job's current
// attempt round. Including the attempt count lets the retry sweep enqueue a
// fresh queue entry after an earlier one ended terminally, while repeated
// enqueues within the same round stay no-ops.
func queueJobID(job *emailjobDomain.EmailJob) string {
	return fmt.Sprintf("email_job:%s:%d", job.ID, job.Attempts)
}

// emailJobPayload is the queue payload for email processing jobs.
type emailJobPayload struct {
	EmailJobID uuid.UUID `json:"email_job_id"`
}

func emailJobPayloadJSON(id uuid.UUID) string {
	payload, _ := json.Marshal(emailJobPayload{EmailJobID: id})
	return string(payload)
}

// filterByStatus returns the prospects currently holding the given status.
func filterByStatus(prospects []*prospectDomain.Prospect, status prospectDomain.ProspectStatus) []*prospectDomain.Prospect {
	out := make([]*prospectDomain.Prospect, 0, len(prospects))
	for _, p := range prospects {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// sleepContext waits for the duration or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
