package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/repositories"
	"github.com/desertthunder/dwarchive/internal/scheduler"
	"github.com/desertthunder/dwarchive/internal/shared"
	"github.com/desertthunder/dwarchive/internal/tasks"
	"github.com/desertthunder/dwarchive/internal/ui"
	"github.com/urfave/cli/v3"
)

// WeeklyJobName names the scheduler job that archives the weekly playlist.
const WeeklyJobName = "discover-weekly"

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// Run performs one archive run and prints its status line.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	opts := r.archiveOptions()
	opts.DryRun = cmd.Bool("dry-run")
	if cmd.Bool("private") {
		opts.Public = false
	}
	if cmd.Bool("cleanup") {
		opts.CleanupOnFailure = true
	}

	useJSON := cmd.Bool("json")

	result, err := r.archive(ctx, models.TriggerManual, opts, !useJSON)
	if useJSON {
		if result != nil {
			if werr := r.writeJSON(result, true); werr != nil {
				return errors.Join(err, werr)
			}
		}
		return err
	}

	r.writePlain("%s\n", ui.StatusLine(result, err))
	if errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthenticated) {
		r.writePlain("%s\n", ui.Help("Run 'dwarchive auth' to authorize again."))
	}
	return err
}

// Schedule runs the weekly job on the configured cron schedule until interrupted.
func (r *Runner) Schedule(ctx context.Context, cmd *cli.Command) error {
	opts := r.archiveOptions()
	opts.DryRun = cmd.Bool("dry-run")

	catchUp := r.config.Schedule.RunOnStart
	if cmd.IsSet("catch-up") {
		catchUp = cmd.Bool("catch-up")
	}

	s, job, err := r.newScheduler(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("%s\n", ui.Info(fmt.Sprintf("Scheduled %q (%s), next run %s",
		job.Name(), job.Spec(), job.Next().Format(time.RFC1123))))

	return s.Start(ctx, catchUp)
}

// newScheduler builds a scheduler with the weekly archive job registered.
func (r *Runner) newScheduler(opts tasks.Options) (*scheduler.Scheduler, *scheduler.Job, error) {
	loc, err := r.config.Schedule.Location()
	if err != nil {
		return nil, nil, err
	}
	interval, err := r.config.Schedule.Interval()
	if err != nil {
		return nil, nil, err
	}

	s := scheduler.New(
		scheduler.WithLocation(loc),
		scheduler.WithInterval(interval),
		scheduler.WithClock(clockFunc(r.clock)),
		scheduler.WithLogger(r.logger),
	)

	job, err := s.Every(WeeklyJobName, r.config.Schedule.Cron, func(ctx context.Context, trigger models.Trigger) error {
		result, err := r.archive(ctx, trigger, opts, false)
		r.writePlain("%s\n", ui.StatusLine(result, err))
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return s, job, nil
}

// archiveOptions builds engine options from the [archive] config section.
func (r *Runner) archiveOptions() tasks.Options {
	opts := tasks.DefaultOptions()
	opts.Public = r.config.Archive.Public
	opts.CleanupOnFailure = r.config.Archive.CleanupOnFailure
	return opts
}

// archive runs the engine once under the run lock, recording the run when the history database is available.
//
// With showProgress set, progress updates are printed as they arrive.
func (r *Runner) archive(ctx context.Context, trigger models.Trigger, opts tasks.Options, showProgress bool) (*tasks.Result, error) {
	svc, err := r.service()
	if err != nil {
		return nil, err
	}

	lock := shared.NewRunLock(r.config.Schedule.LockPath)
	if err := lock.TryLock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", "path", lock.Path(), "error", err)
		}
	}()

	engine := tasks.NewArchiveEngine(svc, r.logger, opts).WithClock(r.now)

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		r.logger.Warn("run history unavailable", "error", err)
	} else {
		defer db.Close()
		engine.WithRecorder(repositories.NewRunRepository(db))
	}

	if !showProgress {
		return engine.Run(ctx, nil, trigger)
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", ui.ProgressLine(update))
		}
	}()

	result, err := engine.Run(ctx, progress, trigger)
	close(progress)
	<-done

	return result, err
}
