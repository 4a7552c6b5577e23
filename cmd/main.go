package main

import (
	"context"
	"os"

	"github.com/desertthunder/dwarchive/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	app := newApp(NewRunner(RunnerOpts{Logger: logger}))
	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "dwarchive",
		Usage:    "Archive Spotify's Discover Weekly playlist before it rotates",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.Before,
		Commands: runner.register(),
	}
}
