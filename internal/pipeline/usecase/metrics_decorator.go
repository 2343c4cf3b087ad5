package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	"github.com/allisson/outreach/internal/metrics"
	queueDomain "github.com/allisson/outreach/internal/queue/domain"
)

// pipelineUseCaseWithMetrics decorates PipelineUseCase with metrics
// instrumentation.
type pipelineUseCaseWithMetrics struct {
	next    PipelineUseCase
	metrics metrics.BusinessMetrics
}

// NewPipelineUseCaseWithMetrics wraps a PipelineUseCase with metrics recording.
func NewPipelineUseCaseWithMetrics(useCase PipelineUseCase, m metrics.BusinessMetrics) PipelineUseCase {
	return &pipelineUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// ProcessCampaign records metrics for campaign processing runs.
func (p *pipelineUseCaseWithMetrics) ProcessCampaign(ctx context.Context, campaignID uuid.UUID) (*Result, error) {
	start := time.Now()
	result, err := p.next.ProcessCampaign(ctx, campaignID)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pipeline", "campaign_process", status)
	p.metrics.RecordDuration(ctx, "pipeline", "campaign_process", time.Since(start), status)

	return result, err
}

// PauseCampaign records metrics for pause requests.
func (p *pipelineUseCaseWithMetrics) PauseCampaign(ctx context.Context, campaignID uuid.UUID) error {
	start := time.Now()
	err := p.next.PauseCampaign(ctx, campaignID)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pipeline", "campaign_pause", status)
	p.metrics.RecordDuration(ctx, "pipeline", "campaign_pause", time.Since(start), status)

	return err
}

// ResumeCampaign records metrics for resume requests.
func (p *pipelineUseCaseWithMetrics) ResumeCampaign(ctx context.Context, campaignID uuid.UUID) error {
	start := time.Now()
	err := p.next.ResumeCampaign(ctx, campaignID)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pipeline", "campaign_resume", status)
	p.metrics.RecordDuration(ctx, "pipeline", "campaign_resume", time.Since(start), status)

	return err
}

// Progress records metrics for progress lookups.
func (p *pipelineUseCaseWithMetrics) Progress(ctx context.Context, campaignID uuid.UUID) (*Progress, error) {
	start := time.Now()
	progress, err := p.next.Progress(ctx, campaignID)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pipeline", "campaign_progress", status)
	p.metrics.RecordDuration(ctx, "pipeline", "campaign_progress", time.Since(start), status)

	return progress, err
}

// ListEmailJobs records metrics for email job listings.
func (p *pipelineUseCaseWithMetrics) ListEmailJobs(
	ctx context.Context,
	campaignID uuid.UUID,
	offset, limit int,
) ([]*emailjobDomain.EmailJob, error) {
	start := time.Now()
	jobs, err := p.next.ListEmailJobs(ctx, campaignID, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pipeline", "email_job_list", status)
	p.metrics.RecordDuration(ctx, "pipeline", "email_job_list", time.Since(start), status)

	return jobs, err
}

// RetryFailedJobs records metrics for retry sweeps.
func (p *pipelineUseCaseWithMetrics) RetryFailedJobs(ctx context.Context) (*RetryResult, error) {
	start := time.Now()
	result, err := p.next.RetryFailedJobs(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pipeline", "retry_sweep", status)
	p.metrics.RecordDuration(ctx, "pipeline", "retry_sweep", time.Since(start), status)

	return result, err
}

// HandleEmailJob records metrics for individual email job executions.
func (p *pipelineUseCaseWithMetrics) HandleEmailJob(ctx context.Context, job *queueDomain.Job) error {
	start := time.Now()
	err := p.next.HandleEmailJob(ctx, job)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pipeline", "email_job_handle", status)
	p.metrics.RecordDuration(ctx, "pipeline", "email_job_handle", time.Since(start), status)

	return err
}
