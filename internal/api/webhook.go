package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gptsummary/internal/bot"
	"github.com/gptsummary/internal/metrics"
)

const signatureHeader = "x-twitter-webhooks-signature"

// handleTimeout bounds one mention event end to end, poll loop
// included.
const handleTimeout = 2 * time.Minute

// MentionHandler processes one tagging tweet to completion.
type MentionHandler interface {
	HandleMention(ctx context.Context, taggingID uint64) error
}

// WebhookHandler terminates the platform's webhook contract: answers
// the CRC challenge and turns tweet-create events into mention
// invocations.
type WebhookHandler struct {
	consumerSecret string
	botUserID      uint64
	handler        MentionHandler
	logger         zerolog.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(consumerSecret string, botUserID uint64, handler MentionHandler, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		consumerSecret: consumerSecret,
		botUserID:      botUserID,
		handler:        handler,
		logger:         logger,
	}
}

// Challenge answers the platform's CRC handshake. The request itself is
// signed over the raw query string; the response token is an HMAC of
// the challenge token with the consumer secret.
func (h *WebhookHandler) Challenge(c echo.Context) error {
	sig := c.Request().Header.Get(signatureHeader)
	if !strings.HasPrefix(sig, "sha256=") {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}
	expected, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sig, "sha256="))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}
	if !hmac.Equal(h.sign(c.Request().URL.RawQuery), expected) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	crcToken := c.QueryParam("crc_token")
	if crcToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "crc_token not found")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"response_token": "sha256=" + base64.StdEncoding.EncodeToString(h.sign(crcToken)),
	})
}

func (h *WebhookHandler) sign(payload string) []byte {
	mac := hmac.New(sha256.New, []byte(h.consumerSecret))
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

type tweetCreateEvent struct {
	IDStr                string `json:"id_str"`
	InReplyToStatusIDStr string `json:"in_reply_to_status_id_str"`
	QuotedStatusIDStr    string `json:"quoted_status_id_str"`
	User                 struct {
		IDStr string `json:"id_str"`
	} `json:"user"`
	Entities struct {
		UserMentions []struct {
			ID uint64 `json:"id"`
		} `json:"user_mentions"`
	} `json:"entities"`
}

type webhookPayload struct {
	TweetCreateEvents []tweetCreateEvent `json:"tweet_create_events"`
}

// Events receives a batch of tweet-create events and runs the mention
// pipeline for each event that is a reply or quote, is not the bot's
// own tweet, and mentions the bot. Events are handled one at a time;
// failures are logged and never fail the delivery.
func (h *WebhookHandler) Events(c echo.Context) error {
	var payload webhookPayload
	if err := c.Bind(&payload); err != nil {
		h.logger.Error().Err(err).Msg("failed to parse webhook payload")
		return echo.NewHTTPError(http.StatusBadRequest, "malformed payload")
	}
	if len(payload.TweetCreateEvents) == 0 {
		h.logger.Info().Msg("no tweet_create_events in payload")
		return c.JSON(http.StatusOK, map[string]string{})
	}

	for _, event := range payload.TweetCreateEvents {
		metrics.EventsReceived.Inc()
		h.handleEvent(c.Request().Context(), event)
	}
	return c.JSON(http.StatusOK, map[string]string{})
}

func (h *WebhookHandler) handleEvent(ctx context.Context, event tweetCreateEvent) {
	logger := h.logger.With().
		Str("event_id", event.IDStr).
		Str("correlation_id", uuid.NewString()).
		Logger()

	if event.InReplyToStatusIDStr == "" && event.QuotedStatusIDStr == "" {
		metrics.EventsSkipped.WithLabelValues("not_reply").Inc()
		logger.Info().Msg("tweet is neither a reply nor a quote")
		return
	}
	if authorID, _ := strconv.ParseUint(event.User.IDStr, 10, 64); authorID == h.botUserID {
		metrics.EventsSkipped.WithLabelValues("from_bot").Inc()
		logger.Info().Msg("tweet from bot itself")
		return
	}
	if !h.mentionsBot(event) {
		metrics.EventsSkipped.WithLabelValues("no_mention").Inc()
		logger.Info().Msg("no mention of bot in tweet")
		return
	}

	taggingID, err := strconv.ParseUint(event.IDStr, 10, 64)
	if err != nil {
		logger.Error().Err(err).Msg("unparseable tweet id")
		return
	}

	handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := h.handler.HandleMention(handleCtx, taggingID); err != nil {
		if bot.IsTerminal(err) {
			logger.Warn().Err(err).Msg("mention abandoned")
		} else {
			logger.Error().Err(err).Msg("mention failed")
		}
		return
	}
	logger.Info().Msg("mention handled")
}

func (h *WebhookHandler) mentionsBot(event tweetCreateEvent) bool {
	for _, mention := range event.Entities.UserMentions {
		if mention.ID == h.botUserID {
			return true
		}
	}
	return false
}
