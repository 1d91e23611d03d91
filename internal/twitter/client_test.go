package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:           srv.URL,
		BearerToken:       "test-token",
		RequestsPerSecond: 1000,
	})
}

func TestGetTweet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tweets/100", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("tweet.fields"), "conversation_id")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"id": "100", "author_id": "7", "conversation_id": "90",
				"text": "hello",
				"created_at": "2023-01-02T10:00:00Z",
				"referenced_tweets": [{"type": "quoted", "id": "55"}]
			},
			"includes": {"tweets": [{"id": "55", "author_id": "8", "conversation_id": "50", "text": "quoted"}]}
		}`))
	})

	tweet, includes, err := client.GetTweet(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, uint64(100), tweet.ID)
	assert.Equal(t, uint64(7), tweet.AuthorID)
	assert.Equal(t, uint64(90), tweet.ConversationID)
	assert.Equal(t, "hello", tweet.Text)

	quoted, ok := tweet.Quoted()
	assert.True(t, ok)
	assert.Equal(t, uint64(55), quoted)
	_, ok = tweet.Parent()
	assert.False(t, ok)

	require.Len(t, includes, 1)
	assert.Equal(t, uint64(50), includes[0].ConversationID)
}

func TestGetTweet_APIErrorsMeanNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"title": "Not Found Error", "detail": "no such tweet"}]}`))
	})

	_, _, err := client.GetTweet(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, _, err := client.GetTweet(context.Background(), 1)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestSearchRecent(t *testing.T) {
	end := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "from:7 to:7 conversation_id:90", r.URL.Query().Get("query"))
		assert.Equal(t, "2023-01-02T10:00:00Z", r.URL.Query().Get("end_time"))
		assert.Equal(t, "100", r.URL.Query().Get("max_results"))

		w.Write([]byte(`{
			"data": [
				{"id": "101", "author_id": "7", "conversation_id": "90", "text": "first",
				 "referenced_tweets": [{"type": "replied_to", "id": "90"}]}
			],
			"includes": {"tweets": [{"id": "90", "author_id": "7", "conversation_id": "90", "text": "root"}]},
			"meta": {"result_count": 1}
		}`))
	})

	tweets, includes, err := client.SearchRecent(context.Background(), "from:7 to:7 conversation_id:90", end)
	require.NoError(t, err)
	require.Len(t, tweets, 1)
	require.Len(t, includes, 1)

	parent, ok := tweets[0].Parent()
	assert.True(t, ok)
	assert.Equal(t, uint64(90), parent)
}

func TestSearchRecent_EmptyIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta": {"result_count": 0}}`))
	})

	tweets, includes, err := client.SearchRecent(context.Background(), "q", time.Now())
	require.NoError(t, err)
	assert.Empty(t, tweets)
	assert.Empty(t, includes)
}

func TestPostReply(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tweets", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := client.PostReply(context.Background(), 123, "the summary")
	require.NoError(t, err)

	assert.Equal(t, "the summary", got["text"])
	reply := got["reply"].(map[string]any)
	assert.Equal(t, "123", reply["in_reply_to_tweet_id"])
}

func TestPostReply_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := client.PostReply(context.Background(), 123, "text")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
