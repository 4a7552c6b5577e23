package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/dwarchive/internal/formatter"
	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/repositories"
	"github.com/desertthunder/dwarchive/internal/shared"
	"github.com/desertthunder/dwarchive/internal/tasks"
	"github.com/desertthunder/dwarchive/internal/ui"
	"github.com/urfave/cli/v3"
)

// History lists recorded archive runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{"limit": cmd.Int("limit")}
	if outcome := models.Outcome(cmd.String("outcome")); outcome != "" {
		if !outcome.Valid() {
			return fmt.Errorf("%w: unknown outcome %q", shared.ErrInvalidArgument, outcome)
		}
		criteria["outcome"] = outcome
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(path, format, runs); err != nil {
			return err
		}
		return r.writePlain("%s\n", ui.Success(fmt.Sprintf("Exported %d runs to %s", len(runs), path)))
	}

	data, err := formatter.Export(format, runs)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// Playlists lists the account's playlists, marking the weekly playlist.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	r.logger.Debug("listing playlists", "service", svc.Name(), "limit", limit)

	playlists, err := tasks.ListPlaylists(ctx, svc, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s playlists (%d)", svc.Name(), len(playlists)))

	target := tasks.WeeklyTarget()
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Owner: %s\n", p.OwnerID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if target.Matches(p) {
			r.writePlain("   %s\n", ui.Info("Weekly playlist"))
		}
		r.writePlain("\n")
	}

	return nil
}
