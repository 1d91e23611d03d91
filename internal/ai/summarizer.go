// Package ai wraps the text-generation service behind a small interface
// so the orchestrator can be tested with a fake.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/gptsummary/internal/retry"
)

// Summarizer produces a completion for a prompt. An empty result with a
// nil error means the model had nothing to say; callers treat that as a
// terminal failure for the request.
type Summarizer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures the LLM-backed summarizer.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	// StopSequence terminates generation; it mirrors the closing tag the
	// prompt opens so the model stays inside one reply.
	StopSequence string
}

// LLMSummarizer calls the completion API through langchain.
type LLMSummarizer struct {
	llm  llms.Model
	opts Options
}

// NewLLMSummarizer creates a summarizer against the OpenAI completion API.
func NewLLMSummarizer(opts Options) (*LLMSummarizer, error) {
	llmOpts := []openai.Option{
		openai.WithModel(opts.Model),
		openai.WithToken(opts.APIKey),
	}
	if opts.BaseURL != "" {
		llmOpts = append(llmOpts, openai.WithBaseURL(opts.BaseURL))
	}

	model, err := openai.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion model: %w", err)
	}
	return &LLMSummarizer{llm: model, opts: opts}, nil
}

// Complete generates a completion for prompt, retrying transient
// upstream failures.
func (s *LLMSummarizer) Complete(ctx context.Context, prompt string) (string, error) {
	callOpts := []llms.CallOption{
		llms.WithTemperature(s.opts.Temperature),
		llms.WithMaxTokens(s.opts.MaxTokens),
	}
	if s.opts.StopSequence != "" {
		callOpts = append(callOpts, llms.WithStopWords([]string{s.opts.StopSequence}))
	}

	var response string
	err := retry.Do(ctx, retry.LLMConfig(), log.Logger, func() error {
		var callErr error
		response, callErr = llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, callOpts...)
		return callErr
	})
	if err != nil {
		log.Error().Err(err).Str("model", s.opts.Model).Msg("completion request failed")
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	return strings.TrimSpace(response), nil
}
