package usecase

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	correlationDomain "github.com/allisson/outreach/internal/correlation/domain"
	emailjobDomain "github.com/allisson/outreach/internal/emailjob/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
)

// pollBatchLimit bounds how many sent jobs one PollReplies sweep inspects.
const pollBatchLimit = 100

// organizationalLocalParts are sender local-parts that never belong to a
// prospect replying personally.
var organizationalLocalParts = map[string]struct{}{
	"noreply":       {},
	"no-reply":      {},
	"donotreply":    {},
	"do-not-reply":  {},
	"support":       {},
	"admin":         {},
	"info":          {},
	"sales":         {},
	"billing":       {},
	"postmaster":    {},
	"abuse":         {},
	"mailer-daemon": {},
}

// correlationUseCase implements the CorrelationUseCase interface.
type correlationUseCase struct {
	emailJobRepo  EmailJobRepository
	prospectRepo  ProspectRepository
	messenger     Messenger
	analyzer      ReplyAnalyzer
	logger        *slog.Logger
	webhookSecret []byte
	window        time.Duration
	lookback      time.Duration
	selfDomains   map[string]struct{}
}

// NewCorrelationUseCase creates a new correlation use case instance.
func NewCorrelationUseCase(
	emailJobRepo EmailJobRepository,
	prospectRepo ProspectRepository,
	messenger Messenger,
	analyzer ReplyAnalyzer,
	logger *slog.Logger,
	webhookSecret string,
	window time.Duration,
	lookback time.Duration,
	organizationDomains []string,
) CorrelationUseCase {
	selfDomains := make(map[string]struct{}, len(organizationDomains))
	for _, d := range organizationDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			selfDomains[d] = struct{}{}
		}
	}

	return &correlationUseCase{
		emailJobRepo:  emailJobRepo,
		prospectRepo:  prospectRepo,
		messenger:     messenger,
		analyzer:      analyzer,
		logger:        logger,
		webhookSecret: []byte(webhookSecret),
		window:        window,
		lookback:      lookback,
		selfDomains:   selfDomains,
	}
}

// HandleInboundEvent correlates one reply with a sent email job. Strategies
// run in order: stored conversation/correlation id, then sender address plus
// the send-time window with the most recent send winning. Self-addressed events
// and events from unknown senders are expected unmatched outcomes.
func (u *correlationUseCase) HandleInboundEvent(ctx context.Context, event *correlationDomain.InboundEvent) (*correlationDomain.Match, error) {
	if event == nil || event.From == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "inbound event has no sender")
	}

	from := normalizeAddress(event.From)
	if u.isSelfAddress(from) {
		u.logger.Info("ignoring self-addressed event", "from", from)
		return &correlationDomain.Match{Type: correlationDomain.MatchTypeUnmatched, Reason: "self address"}, nil
	}

	if event.ConversationID != "" {
		job, err := u.emailJobRepo.GetByConversationID(ctx, event.ConversationID)
		if err == nil {
			return u.settleMatch(ctx, job, event, correlationDomain.MatchTypeStoredID)
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}

		job, err = u.emailJobRepo.GetByCorrelationID(ctx, event.ConversationID)
		if err == nil {
			return u.settleMatch(ctx, job, event, correlationDomain.MatchTypeStoredID)
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	prospect, err := u.prospectRepo.GetByContactEmail(ctx, from)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return &correlationDomain.Match{Type: correlationDomain.MatchTypeUnmatched, Reason: "unknown sender"}, nil
	}
	if err != nil {
		return nil, err
	}

	receivedAt := event.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	candidates, err := u.emailJobRepo.ListByProspectSentWithin(ctx,
		prospect.ID, receivedAt.Add(-u.window), receivedAt.Add(u.window))
	if err != nil {
		return nil, err
	}
	job := mostRecentSend(candidates)
	if job == nil {
		return &correlationDomain.Match{Type: correlationDomain.MatchTypeUnmatched, Reason: "no send within window"}, nil
	}

	// Persist the provider id on the first heuristic match so later events
	// for the same thread take the stored-id fast path.
	if stored := storedID(event); stored != "" && job.CorrelationID == "" {
		if err := u.emailJobRepo.SetCorrelationID(ctx, job.ID, stored); err != nil {
			return nil, err
		}
		job.CorrelationID = stored
	}

	return u.settleMatch(ctx, job, event, correlationDomain.MatchTypeParticipantWindow)
}

// PollReplies sweeps recently sent, unanalyzed jobs and pulls their
// conversation threads for replies the webhook never delivered. Provider
// failures on individual threads are logged and skipped.
func (u *correlationUseCase) PollReplies(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-u.lookback)

	jobs, err := u.emailJobRepo.ListSentUnanalyzed(ctx, cutoff, pollBatchLimit)
	if err != nil {
		return 0, err
	}

	matched := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return matched, ctx.Err()
		}
		if job.ConversationID == "" || job.SentAt == nil {
			continue
		}

		events, err := u.messenger.GetRepliesSince(ctx, job.ConversationID, *job.SentAt)
		if err != nil {
			u.logger.Error("failed to fetch replies",
				"email_job_id", job.ID,
				"conversation_id", job.ConversationID,
				"error", err,
			)
			continue
		}

		for _, event := range events {
			match, err := u.HandleInboundEvent(ctx, event)
			if err != nil {
				u.logger.Error("failed to handle polled reply",
					"email_job_id", job.ID,
					"error", err,
				)
				continue
			}
			if match.Matched() {
				matched++
			}
		}
	}

	u.logger.Info("reply poll finished", "jobs_scanned", len(jobs), "matched", matched)
	return matched, nil
}

// settleMatch triggers the analysis for a correlated job. The conditional
// analyzed-at write makes exactly one caller the winner no matter how many
// times the provider delivers the same reply.
func (u *correlationUseCase) settleMatch(
	ctx context.Context,
	job *emailjobDomain.EmailJob,
	event *correlationDomain.InboundEvent,
	matchType correlationDomain.MatchType,
) (*correlationDomain.Match, error) {
	match := &correlationDomain.Match{Type: matchType, EmailJob: job}

	won, err := u.emailJobRepo.MarkAnalyzed(ctx, job.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !won {
		u.logger.Info("reply already analyzed, skipping",
			"email_job_id", job.ID,
			"match_type", matchType,
		)
		return match, nil
	}

	if err := u.analyzer.AnalyzeReply(ctx, job, event); err != nil {
		// The analyzed-at gate already closed; losing one analysis beats
		// running it twice on redelivery.
		u.logger.Error("reply analysis failed", "email_job_id", job.ID, "error", err)
		return match, err
	}

	match.Analyzed = true
	u.logger.Info("reply correlated and analyzed",
		"email_job_id", job.ID,
		"match_type", matchType,
	)
	return match, nil
}

// isSelfAddress reports whether the sender belongs to the organization or
// uses an organizational local-part.
func (u *correlationUseCase) isSelfAddress(addr string) bool {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok {
		return false
	}
	if _, self := u.selfDomains[domain]; self {
		return true
	}
	_, organizational := organizationalLocalParts[local]
	return organizational
}

// normalizeAddress lowercases the sender and strips any display name.
func normalizeAddress(from string) string {
	if parsed, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(parsed.Address)
	}
	return strings.ToLower(strings.TrimSpace(from))
}

// storedID picks the provider id persisted on a heuristic match.
func storedID(event *correlationDomain.InboundEvent) string {
	if event.ConversationID != "" {
		return event.ConversationID
	}
	return event.MessageID
}

// mostRecentSend returns the candidate with the latest send time. A reply is
// far more likely to answer the latest thread than an older one, even when an
// older send sits nearer the reply timestamp.
func mostRecentSend(candidates []*emailjobDomain.EmailJob) *emailjobDomain.EmailJob {
	var best *emailjobDomain.EmailJob
	for _, job := range candidates {
		if job.SentAt == nil {
			continue
		}
		if best == nil || job.SentAt.After(*best.SentAt) {
			best = job
		}
	}
	return best
}
