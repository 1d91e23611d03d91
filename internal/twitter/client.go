// Package twitter is a thin client for the platform's v2 API: single
// tweet lookup with expansions, recent search, and reply posting. It
// maps API rejections onto the package's sentinel errors and rate-limits
// outbound calls.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.twitter.com/2"

// tweetFields requested on every read so replies can be linked into the
// reference graph without a second round trip.
const tweetFields = "author_id,conversation_id,created_at,referenced_tweets"

// Client talks to the platform API. Reads authenticate with the app
// bearer token; writes go through the injected HTTP client, which is
// expected to carry the bot's user-context credentials.
type Client struct {
	baseURL     string
	bearerToken string
	readClient  *http.Client
	writeClient *http.Client
	limiter     *rate.Limiter
}

// Options configures a Client. WriteClient must be pre-authorized for
// the bot account; it defaults to ReadClient when unset, which only
// works against test servers.
type Options struct {
	BaseURL     string
	BearerToken string
	ReadClient  *http.Client
	WriteClient *http.Client
	// RequestsPerSecond caps outbound calls. Zero means 1 rps with a
	// small burst, comfortably inside the platform's app limits.
	RequestsPerSecond float64
}

// NewClient creates a platform client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.ReadClient == nil {
		opts.ReadClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.WriteClient == nil {
		opts.WriteClient = opts.ReadClient
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL:     opts.BaseURL,
		bearerToken: opts.BearerToken,
		readClient:  opts.ReadClient,
		writeClient: opts.WriteClient,
		limiter:     rate.NewLimiter(rate.Limit(rps), 3),
	}
}

type lookupResponse struct {
	Data     apiTweet `json:"data"`
	Includes struct {
		Tweets []apiTweet `json:"tweets"`
	} `json:"includes"`
	Errors []apiError `json:"errors"`
}

type searchResponse struct {
	Data     []apiTweet `json:"data"`
	Includes struct {
		Tweets []apiTweet `json:"tweets"`
	} `json:"includes"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// GetTweet fetches one tweet plus any referenced tweets the API expands
// alongside it.
func (c *Client) GetTweet(ctx context.Context, id uint64) (*Tweet, []Tweet, error) {
	q := url.Values{}
	q.Set("tweet.fields", tweetFields)
	q.Set("expansions", "referenced_tweets.id")

	var resp lookupResponse
	endpoint := fmt.Sprintf("%s/tweets/%s?%s", c.baseURL, FormatID(id), q.Encode())
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, nil, err
	}
	for _, e := range resp.Errors {
		log.Error().Str("title", e.Title).Str("detail", e.Detail).Msg("tweet lookup error")
	}
	if len(resp.Errors) > 0 || resp.Data.ID == "" {
		return nil, nil, fmt.Errorf("tweet %d: %w", id, ErrNotFound)
	}

	tweet := resp.Data.toTweet()
	return &tweet, convertAll(resp.Includes.Tweets), nil
}

// SearchRecent runs a recent-search query, returning matched tweets and
// the expanded referenced tweets. An empty result is not an error: the
// search index lags tweet creation, and callers poll for it.
func (c *Client) SearchRecent(ctx context.Context, query string, endTime time.Time) ([]Tweet, []Tweet, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("max_results", "100")
	q.Set("tweet.fields", tweetFields)
	q.Set("expansions", "referenced_tweets.id")
	q.Set("end_time", endTime.UTC().Format(time.RFC3339))

	var resp searchResponse
	endpoint := fmt.Sprintf("%s/tweets/search/recent?%s", c.baseURL, q.Encode())
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, nil, err
	}
	return convertAll(resp.Data), convertAll(resp.Includes.Tweets), nil
}

// PostReply posts text as a reply to parentID.
func (c *Client) PostReply(ctx context.Context, parentID uint64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := map[string]any{
		"text": text,
		"reply": map[string]string{
			"in_reply_to_tweet_id": FormatID(parentID),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.writeClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.readClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, body)
	default:
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, body)
	}
}

func convertAll(in []apiTweet) []Tweet {
	out := make([]Tweet, 0, len(in))
	for _, a := range in {
		out = append(out, a.toTweet())
	}
	return out
}
