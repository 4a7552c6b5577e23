package models

import (
	"fmt"
	"time"
)

// Outcome is the terminal state of an archive run.
type Outcome string

const (
	OutcomePending         Outcome = "pending"
	OutcomeArchived        Outcome = "archived"
	OutcomeAlreadyArchived Outcome = "already_archived"
	OutcomeDryRun          Outcome = "dry_run"
	OutcomeFailed          Outcome = "failed"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePending, OutcomeArchived, OutcomeAlreadyArchived, OutcomeDryRun, OutcomeFailed:
		return true
	}
	return false
}

// Trigger records what started a run.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerCatchUp   Trigger = "catch_up"
)

// Run is the persisted record of one archive run.
type Run struct {
	id                string
	sequence          int
	trigger           Trigger
	outcome           Outcome
	weeklyPlaylistID  string
	matchedPlaylistID string
	archivePlaylistID string
	archiveName       string
	trackCount        int
	errText           string
	startedAt         time.Time
	finishedAt        *time.Time
	createdAt         time.Time
	updatedAt         time.Time
	deletedAt         *time.Time
}

// NewRun creates a pending run started at startedAt.
func NewRun(sequence int, trigger Trigger, startedAt time.Time) *Run {
	now := time.Now()
	return &Run{
		sequence:  sequence,
		trigger:   trigger,
		outcome:   OutcomePending,
		startedAt: startedAt,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *Run) ID() string { return r.id }
func (r *Run) Sequence() int { return r.sequence }
func (r *Run) Trigger() Trigger { return r.trigger }
func (r *Run) Outcome() Outcome { return r.outcome }
func (r *Run) WeeklyPlaylistID() string { return r.weeklyPlaylistID }
func (r *Run) MatchedPlaylistID() string { return r.matchedPlaylistID }
func (r *Run) ArchivePlaylistID() string { return r.archivePlaylistID }
func (r *Run) ArchiveName() string { return r.archiveName }
func (r *Run) TrackCount() int { return r.trackCount }
func (r *Run) Error() string { return r.errText }
func (r *Run) StartedAt() time.Time { return r.startedAt }
func (r *Run) FinishedAt() *time.Time { return r.finishedAt }
func (r *Run) CreatedAt() time.Time { return r.createdAt }
func (r *Run) UpdatedAt() time.Time { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time { return r.deletedAt }
func (r *Run) SetID(id string) { r.id = id }
func (r *Run) SetSequence(seq int) { r.sequence = seq }
func (r *Run) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *Run) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *Run) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *Run) SetWeeklyPlaylist(id string) { r.weeklyPlaylistID = id }
func (r *Run) SetTrackCount(n int) { r.trackCount = n }

// Finish records the run's outcome.
//
// matchedID is the existing archive for [OutcomeAlreadyArchived]; archiveID and name describe the new playlist for
// [OutcomeArchived] (and the would-be name for [OutcomeDryRun]).
func (r *Run) Finish(at time.Time, outcome Outcome, matchedID, archiveID, name string) {
	r.outcome = outcome
	r.matchedPlaylistID = matchedID
	r.archivePlaylistID = archiveID
	r.archiveName = name
	r.finishedAt = &at
}

// Fail records a failed run. An archive playlist id may be set when creation succeeded but insertion did not.
func (r *Run) Fail(at time.Time, err error, archiveID, name string) {
	r.outcome = OutcomeFailed
	if err != nil {
		r.errText = err.Error()
	}
	r.archivePlaylistID = archiveID
	r.archiveName = name
	r.finishedAt = &at
}

// Restore sets fields read back from storage.
func (r *Run) Restore(outcome Outcome, weeklyID, matchedID, archiveID, name string, trackCount int, errText string, finishedAt *time.Time) {
	r.outcome = outcome
	r.weeklyPlaylistID = weeklyID
	r.matchedPlaylistID = matchedID
	r.archivePlaylistID = archiveID
	r.archiveName = name
	r.trackCount = trackCount
	r.errText = errText
	r.finishedAt = finishedAt
}

// Duration returns how long the run took, or zero while it is pending.
func (r *Run) Duration() time.Duration {
	if r.finishedAt == nil {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}

// Validate checks required fields.
func (r *Run) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run id is required")
	}
	if !r.outcome.Valid() {
		return fmt.Errorf("invalid outcome %q", r.outcome)
	}
	if r.trigger == "" {
		return fmt.Errorf("run trigger is required")
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("run start time is required")
	}
	if r.outcome == OutcomeFailed && r.errText == "" {
		return fmt.Errorf("failed run requires an error")
	}
	return nil
}
