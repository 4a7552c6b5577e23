// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

// setupCommand creates the config file and the run history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the run history database",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Revert the most recently applied database migration instead",
			},
		},
		Action: r.Setup,
	}
}

// authCommand runs the Spotify OAuth2 flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Action: r.Auth,
	}
}

// runCommand performs a single archive run.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Archive this week's Discover Weekly unless it is already archived",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Decide whether to archive without writing anything",
			},
			&cli.BoolFlag{
				Name:  "private",
				Usage: "Create the archive as a private playlist",
			},
			&cli.BoolFlag{
				Name:  "cleanup",
				Usage: "Remove the archive playlist if adding tracks fails",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run result as JSON",
			},
		},
		Action: r.Run,
	}
}

// scheduleCommand starts the weekly scheduler.
func scheduleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run the archiver on the configured cron schedule until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "catch-up",
				Usage: "Run once at startup before waiting for the schedule (default from schedule.run_on_start)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Decide on each run without writing anything",
			},
		},
		Action: r.Schedule,
	}
}

// playlistsCommand lists the account's playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List the account's playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to return (0 for all)",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
	}
}

// historyCommand lists recorded archive runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded archive runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to return (0 for all)",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "outcome",
				Usage: "Only show runs with this outcome (archived, already_archived, dry_run, failed)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the history to a file instead of stdout",
			},
		},
		Action: r.History,
	}
}
