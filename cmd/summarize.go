package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
)

// SummarizeCommand returns the one-shot summarize command: run the full
// mention pipeline for a single tweet id from the terminal.
func SummarizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Summarize the thread behind a single tweet",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Log the reply instead of posting it",
				Value:   true,
			},
		},
		ArgsUsage: "TWEET_ID",
		Action:    runSummarize,
	}
}

func runSummarize(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: tweet id")
	}
	taggingID, err := strconv.ParseUint(c.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tweet id %q: %w", c.Args().Get(0), err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	orchestrator, err := buildOrchestrator(cfg, c.Bool("dry-run"))
	if err != nil {
		return err
	}

	return orchestrator.HandleMention(context.Background(), taggingID)
}
