package bot

import "errors"

// Terminal failure kinds for a single mention event. Each aborts the
// current event without a reply; redelivery is the webhook's concern.
var (
	// ErrTooOld means the conversation's origin tweet is past the
	// staleness window and the thread stays undisturbed.
	ErrTooOld = errors.New("origin tweet too old")

	// ErrEmptyConversation means linearization produced no texts to
	// summarize.
	ErrEmptyConversation = errors.New("empty conversation")

	// ErrEmptySummary means the completion service returned nothing
	// usable.
	ErrEmptySummary = errors.New("empty summary")

	// ErrPollTimeout means the search index never caught up within the
	// polling budget.
	ErrPollTimeout = errors.New("conversation search polling timed out")
)
