package usecase

import (
	"context"
	"encoding/json"

	"github.com/allisson/outreach/internal/classify"
	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
	queueDomain "github.com/allisson/outreach/internal/queue/domain"
)

// HandleEmailJob processes one email generation job: it consumes an attempt,
// generates the email content and advances the prospect. The returned error's
// classification drives the queue's reschedule-or-fail decision, while the
// email job entity tracks its own attempts against the same ceiling.
func (u *pipelineUseCase) HandleEmailJob(ctx context.Context, job *queueDomain.Job) error {
	var payload emailJobPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "decode email job payload: %v", err)
	}

	emailJob, err := u.emailJobRepo.GetByID(ctx, payload.EmailJobID)
	if err != nil {
		return err
	}
	if emailJob.Status.Terminal() {
		// Stale queue entry for work already settled; nothing to do.
		u.logger.Info("skipping terminal email job", "email_job_id", emailJob.ID, "status", emailJob.Status)
		return nil
	}

	// A job still in processing was abandoned mid-attempt by a crashed
	// worker; resume without consuming another attempt.
	if emailJob.Status != emailjobDomain.EmailJobStatusProcessing {
		if err := emailJob.StartAttempt(); err != nil {
			return err
		}
		if err := u.emailJobRepo.Update(ctx, emailJob); err != nil {
			return err
		}
	}

	prospect, err := u.prospectRepo.GetByID(ctx, emailJob.ProspectID)
	if err != nil {
		return err
	}
	campaign, err := u.campaignRepo.GetByID(ctx, emailJob.CampaignID)
	if err != nil {
		return err
	}

	stageCtx, cancel := context.WithTimeout(ctx, u.stageTimeout)
	content, err := u.generator.GenerateEmail(stageCtx, prospect, campaign)
	cancel()
	if err != nil {
		return u.settleGenerationFailure(ctx, emailJob, prospect, err)
	}

	emailJob.GeneratedEmail = content
	if err := emailJob.Transition(emailjobDomain.EmailJobStatusCompleted); err != nil {
		return err
	}
	if err := u.emailJobRepo.Update(ctx, emailJob); err != nil {
		return err
	}

	if prospect.Status == prospectDomain.ProspectStatusAnalyzed {
		if err := prospect.ApplyStageSuccess(prospectDomain.StageGenerate); err != nil {
			return err
		}
		if err := u.prospectRepo.Update(ctx, prospect); err != nil {
			return err
		}
	}

	u.logger.Info("email generated",
		"email_job_id", emailJob.ID,
		"prospect_id", prospect.ID,
		"attempts", emailJob.Attempts,
	)
	return nil
}

// settleGenerationFailure records a generation failure on the email job and,
// once the job is terminally failed, on the prospect. The classified error is
// returned so the queue applies the matching retry policy.
func (u *pipelineUseCase) settleGenerationFailure(
	ctx context.Context,
	emailJob *emailjobDomain.EmailJob,
	prospect *prospectDomain.Prospect,
	cause error,
) error {
	ce := classify.ClassifyError(cause)

	// A non-retryable error ends the job regardless of remaining attempts.
	ceiling := u.maxAttempts
	if !ce.Retryable {
		ceiling = emailJob.Attempts
	}
	if err := emailJob.RecordFailure(ce.Message, ceiling); err != nil {
		return err
	}
	if err := u.emailJobRepo.Update(ctx, emailJob); err != nil {
		return err
	}

	if emailJob.Status == emailjobDomain.EmailJobStatusFailed {
		u.logger.Error("email generation failed permanently",
			"email_job_id", emailJob.ID,
			"prospect_id", prospect.ID,
			"error_type", ce.Type,
			"attempts", emailJob.Attempts,
		)
		u.recordProspectFailure(ctx, prospect, prospectDomain.StageGenerate, ce)
	} else {
		u.logger.Warn("email generation failed, will retry",
			"email_job_id", emailJob.ID,
			"prospect_id", prospect.ID,
			"error_type", ce.Type,
			"attempts", emailJob.Attempts,
		)
	}
	return ce
}
