package app

import (
	"context"
	"time"

	campaignDomain "github.com/allisson/outreach/internal/campaign/domain"
	correlationDomain "github.com/allisson/outreach/internal/correlation/domain"
	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
	prospectDomain "github.com/allisson/outreach/internal/prospect/domain"
)

// unconfiguredCollaborators implements every external collaborator surface
// (scraping, content generation, messaging provider) by returning
// ErrUnavailable. Deployments plug real providers in here; until then the
// pipeline surfaces a clear classified failure instead of panicking on a
// nil dependency.
type unconfiguredCollaborators struct{}

func (u *unconfiguredCollaborators) ScrapeWebsite(ctx context.Context, url string) (string, error) {
	return "", apperrors.Wrap(apperrors.ErrUnavailable, "scraper is not configured")
}

func (u *unconfiguredCollaborators) AnalyzeBusiness(ctx context.Context, scrapedData, campaignContext string) (string, error) {
	return "", apperrors.Wrap(apperrors.ErrUnavailable, "email generator is not configured")
}

func (u *unconfiguredCollaborators) GenerateEmail(ctx context.Context, prospect *prospectDomain.Prospect, campaign *campaignDomain.Campaign) (string, error) {
	return "", apperrors.Wrap(apperrors.ErrUnavailable, "email generator is not configured")
}

func (u *unconfiguredCollaborators) CreateDraft(ctx context.Context, to, body string) (string, error) {
	return "", apperrors.Wrap(apperrors.ErrUnavailable, "messenger is not configured")
}

func (u *unconfiguredCollaborators) SendDraft(ctx context.Context, draftID string) (*emailjobDomain.SendResult, error) {
	return nil, apperrors.Wrap(apperrors.ErrUnavailable, "messenger is not configured")
}

func (u *unconfiguredCollaborators) GetRepliesSince(ctx context.Context, conversationID string, since time.Time) ([]*correlationDomain.InboundEvent, error) {
	return nil, apperrors.Wrap(apperrors.ErrUnavailable, "messenger is not configured")
}

func (u *unconfiguredCollaborators) AnalyzeReply(ctx context.Context, job *emailjobDomain.EmailJob, event *correlationDomain.InboundEvent) error {
	return apperrors.Wrap(apperrors.ErrUnavailable, "reply analyzer is not configured")
}

// Collaborators returns the shared collaborator implementation.
func (c *Container) Collaborators() *unconfiguredCollaborators {
	c.collaboratorsInit.Do(func() {
		c.collaborators = &unconfiguredCollaborators{}
	})
	return c.collaborators
}
