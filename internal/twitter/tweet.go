package twitter

import (
	"strconv"
	"time"
)

// Reference types the API attaches to a tweet's referenced_tweets.
const (
	RefRepliedTo = "replied_to"
	RefQuoted    = "quoted"
)

// Reference links a tweet to another tweet it replies to or quotes.
type Reference struct {
	Type string
	ID   uint64
}

// Tweet is the immutable view of a platform message used by the bot.
// Identifiers are snowflake-style and monotonically assigned, so they
// double as a chronological tie-break.
type Tweet struct {
	ID             uint64
	AuthorID       uint64
	ConversationID uint64
	Text           string
	CreatedAt      time.Time
	References     []Reference
}

// Parent returns the id of the tweet this one directly replies to.
func (t *Tweet) Parent() (uint64, bool) {
	return t.reference(RefRepliedTo)
}

// Quoted returns the id of the tweet this one quotes.
func (t *Tweet) Quoted() (uint64, bool) {
	return t.reference(RefQuoted)
}

func (t *Tweet) reference(kind string) (uint64, bool) {
	for _, ref := range t.References {
		if ref.Type == kind {
			return ref.ID, true
		}
	}
	return 0, false
}

// Wire representations. The v2 API serializes ids as strings.

type apiReference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type apiTweet struct {
	ID               string         `json:"id"`
	AuthorID         string         `json:"author_id"`
	ConversationID   string         `json:"conversation_id"`
	Text             string         `json:"text"`
	CreatedAt        time.Time      `json:"created_at"`
	ReferencedTweets []apiReference `json:"referenced_tweets"`
}

func (a apiTweet) toTweet() Tweet {
	t := Tweet{
		ID:             parseID(a.ID),
		AuthorID:       parseID(a.AuthorID),
		ConversationID: parseID(a.ConversationID),
		Text:           a.Text,
		CreatedAt:      a.CreatedAt,
	}
	for _, ref := range a.ReferencedTweets {
		t.References = append(t.References, Reference{Type: ref.Type, ID: parseID(ref.ID)})
	}
	return t
}

func parseID(s string) uint64 {
	id, _ := strconv.ParseUint(s, 10, 64)
	return id
}

// FormatID renders an id the way the API expects it.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
