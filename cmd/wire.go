package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/gptsummary/internal/ai"
	"github.com/gptsummary/internal/bot"
	"github.com/gptsummary/internal/config"
	"github.com/gptsummary/internal/logging"
	"github.com/gptsummary/internal/twitter"
)

// loadConfig reads .env, loads and validates the configuration, and
// applies the log level. Shared by serve and summarize.
func loadConfig(c *cli.Context) (*config.Config, error) {
	// A local .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Setup(cfg.Log.Level)
	return cfg, nil
}

// buildOrchestrator assembles the mention pipeline from configuration.
func buildOrchestrator(cfg *config.Config, dryRun bool) (*bot.Orchestrator, error) {
	client := twitter.NewClient(twitter.Options{
		BearerToken: cfg.Twitter.BearerToken,
	})

	summarizer, err := ai.NewLLMSummarizer(ai.Options{
		APIKey:       cfg.AI.APIKey,
		BaseURL:      cfg.AI.BaseURL,
		Model:        cfg.AI.Model,
		Temperature:  cfg.AI.Temperature,
		MaxTokens:    cfg.AI.MaxTokens,
		StopSequence: "</tweet>",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create summarizer: %w", err)
	}

	return bot.New(bot.Options{
		Reader:          client,
		Writer:          client,
		Summarizer:      summarizer,
		Logger:          log.Logger,
		DryRun:          dryRun || cfg.Bot.DryRun,
		MaxPollAttempts: cfg.Bot.MaxPollAttempts,
	}), nil
}
