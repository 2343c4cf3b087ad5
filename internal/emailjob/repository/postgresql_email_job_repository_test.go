package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/outreach/internal/emailjob/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
	"github.com/allisson/outreach/internal/testutil"
)

func newTestEmailJob(prospectID, campaignID uuid.UUID) *domain.EmailJob {
	return &domain.EmailJob{
		ID:         uuid.Must(uuid.NewV7()),
		ProspectID: prospectID,
		CampaignID: campaignID,
		Status:     domain.EmailJobStatusQueued,
	}
}

func TestPostgreSQLEmailJobRepository_Create(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectID := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "create")

	job := newTestEmailJob(prospectID, campaignID)
	err := repo.Create(ctx, job)
	require.NoError(t, err)

	read, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, read.ID)
	assert.Equal(t, prospectID, read.ProspectID)
	assert.Equal(t, campaignID, read.CampaignID)
	assert.Equal(t, domain.EmailJobStatusQueued, read.Status)
	assert.Equal(t, 0, read.Attempts)
	assert.Nil(t, read.SentAt)
	assert.Nil(t, read.AnalyzedAt)
}

func TestPostgreSQLEmailJobRepository_Create_DuplicatePair(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectID := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "dup")

	err := repo.Create(ctx, newTestEmailJob(prospectID, campaignID))
	require.NoError(t, err)

	// A second job for the same (prospect, campaign) pair must be rejected.
	err = repo.Create(ctx, newTestEmailJob(prospectID, campaignID))
	assert.ErrorIs(t, err, domain.ErrEmailJobExists)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestPostgreSQLEmailJobRepository_GetByID_NotFound(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)

	job, err := repo.GetByID(context.Background(), uuid.Must(uuid.NewV7()))
	assert.Nil(t, job)
	assert.ErrorIs(t, err, domain.ErrEmailJobNotFound)
}

func TestPostgreSQLEmailJobRepository_Update(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectID := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "update")

	job := newTestEmailJob(prospectID, campaignID)
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, job.StartAttempt())
	job.GeneratedEmail = "Hello there"
	job.DraftID = "draft-1"
	require.NoError(t, job.Transition(domain.EmailJobStatusCompleted))
	sentAt := time.Now().UTC().Truncate(time.Second)
	job.MarkSent("msg-1", "conv-1", sentAt)

	require.NoError(t, repo.Update(ctx, job))

	read, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EmailJobStatusCompleted, read.Status)
	assert.Equal(t, 1, read.Attempts)
	assert.Equal(t, "Hello there", read.GeneratedEmail)
	assert.Equal(t, "draft-1", read.DraftID)
	assert.Equal(t, "msg-1", read.MessageID)
	assert.Equal(t, "conv-1", read.ConversationID)
	require.NotNil(t, read.SentAt)
	assert.WithinDuration(t, sentAt, *read.SentAt, time.Second)
}

func TestPostgreSQLEmailJobRepository_Update_NotFound(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)

	job := newTestEmailJob(uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()))
	err := repo.Update(context.Background(), job)
	assert.ErrorIs(t, err, domain.ErrEmailJobNotFound)
}

func TestPostgreSQLEmailJobRepository_GetByCorrelationID(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectID := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "corr")

	job := newTestEmailJob(prospectID, campaignID)
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, repo.SetCorrelationID(ctx, job.ID, "thread-42"))

	read, err := repo.GetByCorrelationID(ctx, "thread-42")
	require.NoError(t, err)
	assert.Equal(t, job.ID, read.ID)
	assert.Equal(t, "thread-42", read.CorrelationID)

	_, err = repo.GetByCorrelationID(ctx, "thread-unknown")
	assert.ErrorIs(t, err, domain.ErrEmailJobNotFound)
}

func TestPostgreSQLEmailJobRepository_MarkAnalyzed_OnlyOnce(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectID := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "analyzed")

	job := newTestEmailJob(prospectID, campaignID)
	require.NoError(t, repo.Create(ctx, job))

	// First stamp wins.
	won, err := repo.MarkAnalyzed(ctx, job.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, won)

	// A second stamp loses, keeping duplicate webhook and poll deliveries
	// from triggering two analyses.
	won, err = repo.MarkAnalyzed(ctx, job.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, won)

	read, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.NotNil(t, read.AnalyzedAt)
}

func TestPostgreSQLEmailJobRepository_ListByProspectSentWithin(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectID := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "window")
	otherCampaignID := testutil.CreateTestCampaign(t, db, "postgres", "window-other")

	now := time.Now().UTC()

	// Inside the window.
	inside := newTestEmailJob(prospectID, campaignID)
	inside.MarkSent("msg-in", "conv-in", now.Add(-2*time.Hour))
	require.NoError(t, repo.Create(ctx, inside))
	require.NoError(t, repo.Update(ctx, inside))

	// Outside the window.
	outside := newTestEmailJob(prospectID, otherCampaignID)
	outside.MarkSent("msg-out", "conv-out", now.Add(-48*time.Hour))
	require.NoError(t, repo.Create(ctx, outside))
	require.NoError(t, repo.Update(ctx, outside))

	jobs, err := repo.ListByProspectSentWithin(ctx, prospectID, now.Add(-24*time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, inside.ID, jobs[0].ID)

	// Analyzed jobs drop out of the candidate set.
	_, err = repo.MarkAnalyzed(ctx, inside.ID, now)
	require.NoError(t, err)

	jobs, err = repo.ListByProspectSentWithin(ctx, prospectID, now.Add(-24*time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestPostgreSQLEmailJobRepository_ListSentUnanalyzed(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectID := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "poll")

	now := time.Now().UTC()

	sent := newTestEmailJob(prospectID, campaignID)
	sent.MarkSent("msg-1", "conv-1", now.Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, sent))
	require.NoError(t, repo.Update(ctx, sent))

	jobs, err := repo.ListSentUnanalyzed(ctx, now.Add(-7*24*time.Hour), 100)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, sent.ID, jobs[0].ID)

	// Jobs sent before the lookback cutoff are excluded.
	jobs, err = repo.ListSentUnanalyzed(ctx, now.Add(-time.Minute), 100)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestPostgreSQLEmailJobRepository_ListFailed(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectID := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "failed")
	otherCampaignID := testutil.CreateTestCampaign(t, db, "postgres", "failed-other")

	// Failed with attempts below the ceiling: eligible.
	eligible := newTestEmailJob(prospectID, campaignID)
	eligible.Status = domain.EmailJobStatusFailed
	eligible.Attempts = 1
	require.NoError(t, repo.Create(ctx, eligible))
	require.NoError(t, repo.Update(ctx, eligible))

	// Failed with attempts at the ceiling: excluded.
	exhausted := newTestEmailJob(prospectID, otherCampaignID)
	exhausted.Status = domain.EmailJobStatusFailed
	exhausted.Attempts = 3
	require.NoError(t, repo.Create(ctx, exhausted))
	require.NoError(t, repo.Update(ctx, exhausted))

	jobs, err := repo.ListFailed(ctx, 3, 100)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, eligible.ID, jobs[0].ID)
}

func TestPostgreSQLEmailJobRepository_ListMissingDraft(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectID := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "draftless")
	otherCampaignID := testutil.CreateTestCampaign(t, db, "postgres", "draftless-other")

	// Generated but no draft: eligible.
	draftless := newTestEmailJob(prospectID, campaignID)
	draftless.GeneratedEmail = "Generated body"
	require.NoError(t, repo.Create(ctx, draftless))

	// Generated with a draft: excluded.
	drafted := newTestEmailJob(prospectID, otherCampaignID)
	drafted.GeneratedEmail = "Generated body"
	drafted.DraftID = "draft-9"
	require.NoError(t, repo.Create(ctx, drafted))

	jobs, err := repo.ListMissingDraft(ctx, 100)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, draftless.ID, jobs[0].ID)
}

func TestPostgreSQLEmailJobRepository_CountByCampaignAndStatus(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLEmailJobRepository(db)
	ctx := context.Background()

	campaignID, prospectA := testutil.CreateTestCampaignAndProspect(t, db, "postgres", "counts")
	prospectB := testutil.CreateTestProspect(t, db, "postgres", "https://counts-b.example.com")
	prospectC := testutil.CreateTestProspect(t, db, "postgres", "https://counts-c.example.com")

	queued := newTestEmailJob(prospectA, campaignID)
	require.NoError(t, repo.Create(ctx, queued))

	completed := newTestEmailJob(prospectB, campaignID)
	completed.Status = domain.EmailJobStatusCompleted
	require.NoError(t, repo.Create(ctx, completed))
	require.NoError(t, repo.Update(ctx, completed))

	failed := newTestEmailJob(prospectC, campaignID)
	failed.Status = domain.EmailJobStatusFailed
	require.NoError(t, repo.Create(ctx, failed))
	require.NoError(t, repo.Update(ctx, failed))

	counts, err := repo.CountByCampaignAndStatus(ctx, campaignID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.EmailJobStatusQueued])
	assert.Equal(t, 1, counts[domain.EmailJobStatusCompleted])
	assert.Equal(t, 1, counts[domain.EmailJobStatusFailed])
	assert.Equal(t, 0, counts[domain.EmailJobStatusProcessing])
}
