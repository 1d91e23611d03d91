package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook metrics
	EventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gptsummary_webhook_events_total",
			Help: "Total tweet-create events received",
		},
	)

	EventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gptsummary_webhook_events_skipped_total",
			Help: "Events dropped before processing",
		},
		[]string{"reason"}, // "not_reply", "from_bot", "no_mention"
	)

	// Mention handling metrics
	MentionsHandled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gptsummary_mentions_handled_total",
			Help: "Mentions processed to a posted (or dry-run) reply",
		},
	)

	MentionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gptsummary_mention_failures_total",
			Help: "Mentions aborted, by pipeline stage",
		},
		[]string{"stage"},
	)

	HandleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gptsummary_handle_duration_seconds",
			Help:    "End-to-end mention handling duration",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	PollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gptsummary_search_poll_attempts",
			Help:    "Search polls needed before the index caught up",
			Buckets: []float64{1, 2, 3, 5, 10, 20},
		},
	)
)
