package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/services"
	"github.com/desertthunder/dwarchive/internal/shared"
)

// Options controls what a run writes.
type Options struct {
	Target           Target // Playlist to archive
	Public           bool   // Create archives as public playlists
	CleanupOnFailure bool   // Remove the archive playlist when inserting tracks fails
	DryRun           bool   // Decide without writing
}

// DefaultOptions archives Discover Weekly into public playlists without cleanup.
func DefaultOptions() Options {
	return Options{Target: WeeklyTarget(), Public: true}
}

// RunRecorder persists run history. [repositories.RunRepository] implements it.
type RunRecorder interface {
	Create(run *models.Run) error
	Update(run *models.Run) error
}

// Result describes the outcome of one run.
type Result struct {
	RunID       string
	Outcome     models.Outcome
	Weekly      models.Playlist
	Tracks      int              // Tracks fetched from the weekly playlist
	Inserted    int              // Tracks sent to the archive
	Dropped     int              // Absent tracks left out of the archive
	ArchiveName string           // Name of the new (or would-be) archive
	Matched     *models.Playlist // Existing archive, when already archived
	Archive     *models.Playlist // Created archive
	CleanedUp   bool             // Archive was removed after a failed insert
}

// Summary returns the one-line status for the result.
func (r *Result) Summary() string {
	switch r.Outcome {
	case models.OutcomeArchived:
		return fmt.Sprintf("Archived %d tracks to %q", r.Inserted, r.ArchiveName)
	case models.OutcomeAlreadyArchived:
		return fmt.Sprintf("%s already archived as %q", r.Weekly.Name, r.Matched.Name)
	case models.OutcomeDryRun:
		return fmt.Sprintf("Dry run: would archive %d tracks to %q", r.Tracks, r.ArchiveName)
	default:
		return fmt.Sprintf("Run %s", r.Outcome)
	}
}

// ArchiveEngine runs the locate, fetch, decide and archive sequence against one account.
type ArchiveEngine struct {
	service  services.Service
	logger   *log.Logger
	options  Options
	recorder RunRecorder
	clock    func() time.Time
}

// NewArchiveEngine creates an engine for svc. A nil logger discards output.
func NewArchiveEngine(svc services.Service, logger *log.Logger, opts Options) *ArchiveEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Target == (Target{}) {
		opts.Target = WeeklyTarget()
	}
	return &ArchiveEngine{
		service: svc,
		logger:  shared.WithLogger(logger, "component", "archive"),
		options: opts,
		clock:   time.Now,
	}
}

// WithRecorder records every run through r.
func (e *ArchiveEngine) WithRecorder(r RunRecorder) *ArchiveEngine {
	e.recorder = r
	return e
}

// WithClock replaces the time source used for run timestamps and archive names.
func (e *ArchiveEngine) WithClock(clock func() time.Time) *ArchiveEngine {
	e.clock = clock
	return e
}

// Options returns the engine's options.
func (e *ArchiveEngine) Options() Options {
	return e.options
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ArchiveEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs one archive run.
//
// Any failure aborts the run; the returned error wraps the cause and the result holds what was reached before it.
func (e *ArchiveEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, trigger models.Trigger) (*Result, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: account service not initialized", shared.ErrServiceUnavailable)
	}

	now := e.clock()
	run, recorded := e.begin(trigger, now)
	logger := e.logger.With("run", run.ID(), "trigger", trigger)

	result := &Result{RunID: run.ID(), Outcome: models.OutcomePending}
	err := e.execute(ctx, progress, logger, now, result)
	if err != nil {
		result.Outcome = models.OutcomeFailed
		logger.Error("run failed", "error", err)
	} else {
		e.sendProgress(progress, doneUpdate(result))
	}

	if recorded {
		e.complete(logger, run, result, err)
	}
	return result, err
}

func (e *ArchiveEngine) execute(ctx context.Context, progress chan<- ProgressUpdate, logger *log.Logger, now time.Time, result *Result) error {
	target := e.options.Target

	e.sendProgress(progress, locatingUpdate(target))
	weekly, err := Locate(ctx, e.service, target)
	if err != nil {
		return err
	}
	result.Weekly = weekly
	e.sendProgress(progress, foundPlaylistUpdate(weekly))
	logger.Debug("located weekly playlist", "id", weekly.ID, "tracks", weekly.TrackCount)

	tracks, err := FetchTracks(ctx, e.service, weekly.ID)
	if err != nil {
		return err
	}
	result.Tracks = len(tracks)
	e.sendProgress(progress, fetchedTracksUpdate(len(tracks)))
	if len(tracks) != WeeklyTrackCount {
		logger.Warn("weekly playlist has an unexpected size", "want", WeeklyTrackCount, "got", len(tracks))
	}

	rc := NewRunContext(now, target, weekly, tracks)

	e.sendProgress(progress, searchingArchivesUpdate())
	matched, err := FindArchive(ctx, e.service, rc)
	if err != nil {
		return err
	}
	if matched != nil {
		result.Outcome = models.OutcomeAlreadyArchived
		result.Matched = matched
		e.sendProgress(progress, alreadyArchivedUpdate(matched))
		logger.Info("already archived", "playlist", matched.Name, "id", matched.ID)
		return nil
	}

	result.ArchiveName = ArchiveName(rc.Now())
	e.sendProgress(progress, notArchivedUpdate(result.ArchiveName))

	if e.options.DryRun {
		result.Outcome = models.OutcomeDryRun
		logger.Info("dry run, skipping archive", "name", result.ArchiveName)
		return nil
	}

	return e.archive(ctx, progress, logger, rc, result)
}

// archive creates the archive playlist and inserts the weekly tracks in playlist order with one call.
func (e *ArchiveEngine) archive(ctx context.Context, progress chan<- ProgressUpdate, logger *log.Logger, rc RunContext, result *Result) error {
	userID, err := e.service.CurrentUserID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	ids, dropped := insertable(rc.Tracks())
	result.Dropped = dropped
	if dropped > 0 {
		logger.Warn("skipping tracks without an id", "count", dropped)
	}

	e.sendProgress(progress, creatingArchiveUpdate(result.ArchiveName))
	archive, err := e.service.CreatePlaylist(ctx, userID, result.ArchiveName, e.options.Public)
	if err != nil {
		return fmt.Errorf("failed to create playlist %q: %w", result.ArchiveName, err)
	}
	result.Archive = archive
	e.sendProgress(progress, createdArchiveUpdate(archive))

	if len(ids) > 0 {
		e.sendProgress(progress, insertingTracksUpdate(len(ids)))
		if err := e.service.AddTracks(ctx, userID, archive.ID, ids); err != nil {
			err = fmt.Errorf("failed to add tracks to %q: %w", archive.Name, err)
			return e.cleanup(ctx, logger, result, err)
		}
	}

	result.Inserted = len(ids)
	result.Outcome = models.OutcomeArchived
	logger.Info("archived weekly playlist", "name", archive.Name, "id", archive.ID, "tracks", len(ids))
	return nil
}

// cleanup removes the empty archive after a failed insert when enabled. cause is always returned.
func (e *ArchiveEngine) cleanup(ctx context.Context, logger *log.Logger, result *Result, cause error) error {
	if !e.options.CleanupOnFailure {
		logger.Warn("archive playlist left without tracks", "id", result.Archive.ID)
		return cause
	}

	if err := e.service.RemovePlaylist(ctx, result.Archive.ID); err != nil {
		logger.Error("failed to remove archive playlist", "id", result.Archive.ID, "error", err)
		return errors.Join(cause, fmt.Errorf("cleanup of %s failed: %w", result.Archive.ID, err))
	}

	result.CleanedUp = true
	logger.Info("removed archive playlist after failed insert", "id", result.Archive.ID)
	return cause
}

// begin creates the run record. History is best effort: a recorder failure is logged and the run continues.
func (e *ArchiveEngine) begin(trigger models.Trigger, now time.Time) (*models.Run, bool) {
	run := models.NewRun(0, trigger, now)
	recorded := false
	if e.recorder != nil {
		if err := e.recorder.Create(run); err != nil {
			e.logger.Warn("failed to record run", "error", err)
		} else {
			recorded = true
		}
	}
	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	return run, recorded
}

func (e *ArchiveEngine) complete(logger *log.Logger, run *models.Run, result *Result, err error) {
	run.SetWeeklyPlaylist(result.Weekly.ID)
	run.SetTrackCount(result.Tracks)

	archiveID := ""
	if result.Archive != nil && !result.CleanedUp {
		archiveID = result.Archive.ID
	}

	if err != nil {
		run.Fail(e.clock(), err, archiveID, result.ArchiveName)
	} else {
		matchedID := ""
		if result.Matched != nil {
			matchedID = result.Matched.ID
		}
		run.Finish(e.clock(), result.Outcome, matchedID, archiveID, result.ArchiveName)
	}

	if err := e.recorder.Update(run); err != nil {
		logger.Warn("failed to update run record", "error", err)
	}
}
