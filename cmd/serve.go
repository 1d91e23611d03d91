package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/gptsummary/internal/api"
)

// ServeCommand returns the CLI command for starting the webhook server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the webhook server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the webhook server (overrides config)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Log intended replies instead of posting them",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}

	orchestrator, err := buildOrchestrator(cfg, c.Bool("dry-run"))
	if err != nil {
		return err
	}

	webhook := api.NewWebhookHandler(
		cfg.Twitter.ConsumerSecret,
		cfg.Twitter.BotUserID,
		orchestrator,
		log.Logger,
	)

	log.Info().Int("port", port).Bool("dry_run", c.Bool("dry-run") || cfg.Bot.DryRun).
		Msg("starting webhook server")

	server := api.NewServer(port, webhook)
	if err := server.Start(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
