// Package bot coordinates one mention event end to end: resolve the
// conversation root, collect the author's thread, linearize it, ask the
// completion service for a summary, bound it, and reply.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gptsummary/internal/ai"
	"github.com/gptsummary/internal/metrics"
	"github.com/gptsummary/internal/summary"
	"github.com/gptsummary/internal/thread"
	"github.com/gptsummary/internal/twitter"
)

// Reader is the platform read surface the orchestrator needs.
type Reader interface {
	GetTweet(ctx context.Context, id uint64) (*twitter.Tweet, []twitter.Tweet, error)
	SearchRecent(ctx context.Context, query string, endTime time.Time) ([]twitter.Tweet, []twitter.Tweet, error)
}

// Writer is the platform write surface.
type Writer interface {
	PostReply(ctx context.Context, parentID uint64, text string) error
}

const (
	// maxThreadAge is the staleness window: threads whose origin tweet
	// is older than this are left alone.
	maxThreadAge = 7 * 24 * time.Hour

	// searchCutoff keeps the search end_time behind "now" so we never
	// race the platform's own indexing of the triggering tweet.
	searchCutoff = 10 * time.Second

	// pollInterval is the fixed wait between search retries while the
	// index catches up.
	pollInterval = 3 * time.Second

	// defaultMaxPollAttempts caps the eventual-consistency wait.
	defaultMaxPollAttempts = 20

	promptInstruction = "\nSummarize the above into a single 280 character Tweet:\n<tweet>"
)

// Options configures an Orchestrator.
type Options struct {
	Reader     Reader
	Writer     Writer
	Summarizer ai.Summarizer
	Logger     zerolog.Logger

	// DryRun suppresses the reply and logs it instead.
	DryRun bool

	// MaxPollAttempts caps the search poll loop; zero means the default.
	MaxPollAttempts int

	// Now is the clock, injectable for tests. Nil means time.Now.
	Now func() time.Time

	// Sleep waits between polls, injectable for tests. Nil sleeps for
	// real, honoring ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Orchestrator handles mention events one at a time. All state is
// request-scoped; a single instance is safe for concurrent events.
type Orchestrator struct {
	reader          Reader
	writer          Writer
	summarizer      ai.Summarizer
	logger          zerolog.Logger
	dryRun          bool
	maxPollAttempts int
	now             func() time.Time
	sleep           func(ctx context.Context, d time.Duration) error
}

// New creates an Orchestrator from Options.
func New(opts Options) *Orchestrator {
	if opts.MaxPollAttempts <= 0 {
		opts.MaxPollAttempts = defaultMaxPollAttempts
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		}
	}
	return &Orchestrator{
		reader:          opts.Reader,
		writer:          opts.Writer,
		summarizer:      opts.Summarizer,
		logger:          opts.Logger,
		dryRun:          opts.DryRun,
		maxPollAttempts: opts.MaxPollAttempts,
		now:             opts.Now,
		sleep:           opts.Sleep,
	}
}

// HandleMention processes one tagging tweet to completion. Every
// failure is terminal for this event and logged with the stage it
// happened in.
func (o *Orchestrator) HandleMention(ctx context.Context, taggingID uint64) error {
	start := o.now()
	logger := o.logger.With().Uint64("tagging_id", taggingID).Logger()

	convID, err := o.resolveConversationID(ctx, taggingID)
	if err != nil {
		metrics.MentionFailures.WithLabelValues("resolve_root").Inc()
		logger.Error().Err(err).Str("stage", "resolve_root").Msg("abort")
		return err
	}
	logger = logger.With().Uint64("conversation_id", convID).Logger()

	texts, err := o.collectThread(ctx, logger, convID, taggingID)
	if err != nil {
		return err
	}

	text, err := o.summarize(ctx, logger, texts)
	if err != nil {
		return err
	}

	if err := o.dispatch(ctx, logger, taggingID, text); err != nil {
		return err
	}

	metrics.MentionsHandled.Inc()
	metrics.HandleDuration.Observe(o.now().Sub(start).Seconds())
	return nil
}

// resolveConversationID finds the conversation root for the tagging
// tweet. A quote tweet re-parents the conversation: the summary covers
// the quoted thread, not the quoting one.
func (o *Orchestrator) resolveConversationID(ctx context.Context, taggingID uint64) (uint64, error) {
	tagging, includes, err := o.reader.GetTweet(ctx, taggingID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tagging tweet: %w", err)
	}

	if quotedID, ok := tagging.Quoted(); ok {
		for _, inc := range includes {
			if inc.ID == quotedID {
				return inc.ConversationID, nil
			}
		}
	}
	return tagging.ConversationID, nil
}

// collectThread fetches the thread author's tweets in the conversation
// and linearizes them into the ordered text sequence, excluding the
// tagging tweet.
func (o *Orchestrator) collectThread(ctx context.Context, logger zerolog.Logger, convID, taggingID uint64) ([]string, error) {
	origin, _, err := o.reader.GetTweet(ctx, convID)
	if err != nil {
		metrics.MentionFailures.WithLabelValues("fetch_origin").Inc()
		logger.Error().Err(err).Str("stage", "fetch_origin").Msg("abort")
		return nil, fmt.Errorf("failed to fetch origin tweet: %w", err)
	}
	if age := o.now().Sub(origin.CreatedAt); age > maxThreadAge {
		metrics.MentionFailures.WithLabelValues("too_old").Inc()
		logger.Warn().Dur("age", age).Str("stage", "too_old").Msg("abort")
		return nil, fmt.Errorf("origin created %s ago: %w", age, ErrTooOld)
	}

	found, expanded, err := o.pollConversation(ctx, logger, convID, origin.AuthorID)
	if err != nil {
		return nil, err
	}

	// The expansions matter: the search endpoint does not always return
	// every tweet in the thread directly, but referenced parents travel
	// in includes. Only same-author tweets inside this conversation get
	// a text entry; everything else is linked into the forest so the
	// ordering survives replies to third-party asides.
	texts := map[uint64]string{convID: origin.Text}
	parents := make(map[uint64]uint64)
	for _, tweet := range append(expanded, found...) {
		if tweet.AuthorID == origin.AuthorID && tweet.ConversationID == convID {
			texts[tweet.ID] = tweet.Text
		}
		if parent, ok := tweet.Parent(); ok {
			parents[tweet.ID] = parent
		}
	}

	forest := thread.BuildReplyForest(parents)
	order := thread.Linearize(forest, convID)
	conversation := thread.Texts(order, texts, taggingID)
	if len(conversation) == 0 {
		metrics.MentionFailures.WithLabelValues("empty_conversation").Inc()
		logger.Warn().Str("stage", "empty_conversation").Msg("abort")
		return nil, ErrEmptyConversation
	}

	logger.Info().Int("tweets", len(conversation)).Msg("thread reconstructed")
	return conversation, nil
}

// pollConversation queries the author's conversation tweets, waiting
// out the search index's eventual consistency. The source behavior
// looped forever here; this one gives up after maxPollAttempts or when
// ctx expires.
func (o *Orchestrator) pollConversation(ctx context.Context, logger zerolog.Logger, convID, authorID uint64) ([]twitter.Tweet, []twitter.Tweet, error) {
	query := fmt.Sprintf("from:%d to:%d conversation_id:%d",
		authorID, authorID, convID)

	for attempt := 1; ; attempt++ {
		endTime := o.now().Add(-searchCutoff)
		found, expanded, err := o.reader.SearchRecent(ctx, query, endTime)
		if err != nil {
			metrics.MentionFailures.WithLabelValues("search").Inc()
			logger.Error().Err(err).Str("stage", "search").Msg("abort")
			return nil, nil, fmt.Errorf("conversation search failed: %w", err)
		}
		if len(found) > 0 {
			metrics.PollAttempts.Observe(float64(attempt))
			return found, expanded, nil
		}
		if attempt >= o.maxPollAttempts {
			metrics.MentionFailures.WithLabelValues("poll_timeout").Inc()
			logger.Error().Int("attempts", attempt).Str("stage", "poll_timeout").Msg("abort")
			return nil, nil, ErrPollTimeout
		}

		logger.Debug().Int("attempt", attempt).Msg("search index not caught up, waiting")
		if err := o.sleep(ctx, pollInterval); err != nil {
			metrics.MentionFailures.WithLabelValues("poll_timeout").Inc()
			logger.Error().Err(err).Str("stage", "poll_timeout").Msg("abort")
			return nil, nil, fmt.Errorf("%w: %w", ErrPollTimeout, err)
		}
	}
}

// summarize builds the prompt, invokes the completion service, and
// bounds the result to the reply length limit.
func (o *Orchestrator) summarize(ctx context.Context, logger zerolog.Logger, texts []string) (string, error) {
	prompt := "<tweet>" + strings.Join(texts, "</tweet><tweet>") + "</tweet>" + promptInstruction

	raw, err := o.summarizer.Complete(ctx, prompt)
	if err != nil {
		metrics.MentionFailures.WithLabelValues("summarize").Inc()
		logger.Error().Err(err).Str("stage", "summarize").Msg("abort")
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	if raw == "" {
		metrics.MentionFailures.WithLabelValues("empty_summary").Inc()
		logger.Warn().Str("stage", "empty_summary").Msg("abort")
		return "", ErrEmptySummary
	}

	return summary.Bound(raw), nil
}

// dispatch posts the reply, or only logs it in dry-run mode.
func (o *Orchestrator) dispatch(ctx context.Context, logger zerolog.Logger, taggingID uint64, text string) error {
	if o.dryRun {
		logger.Info().Str("reply", text).Msg("dry run, reply suppressed")
		return nil
	}
	if err := o.writer.PostReply(ctx, taggingID, text); err != nil {
		metrics.MentionFailures.WithLabelValues("reply").Inc()
		logger.Error().Err(err).Str("stage", "reply").Msg("abort")
		return fmt.Errorf("failed to post reply: %w", err)
	}
	logger.Info().Int("length", len(text)).Msg("reply posted")
	return nil
}

// IsTerminal reports whether err is one of the orchestrator's own
// failure kinds, as opposed to a wrapped transport error.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrTooOld) ||
		errors.Is(err, ErrEmptyConversation) ||
		errors.Is(err, ErrEmptySummary) ||
		errors.Is(err, ErrPollTimeout)
}
