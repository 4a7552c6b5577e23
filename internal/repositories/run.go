package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/shared"
)

const runColumns = `id, sequence, triggered_by, outcome, weekly_playlist_id, matched_playlist_id, archive_playlist_id,
	archive_name, track_count, error, started_at, finished_at, created_at, updated_at, deleted_at`

// RunRepository implements models.Repository[*models.Run] for archive run history.
//
// Handles run CRUD operations with soft delete support and outcome-based queries.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Run] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (
			id, sequence, triggered_by, outcome, weekly_playlist_id, matched_playlist_id, archive_playlist_id,
			archive_name, track_count, error, started_at, finished_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		string(run.Trigger()),
		string(run.Outcome()),
		run.WeeklyPlaylistID(),
		run.MatchedPlaylistID(),
		run.ArchivePlaylistID(),
		run.ArchiveName(),
		run.TrackCount(),
		run.Error(),
		run.StartedAt(),
		nullTime(run.FinishedAt()),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`
	return scanRun(r.db.QueryRow(query, id))
}

// Latest returns the most recent run.
func (r *RunRepository) Latest() (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`
	return scanRun(r.db.QueryRow(query))
}

// Update writes the run's outcome fields
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET outcome = ?, weekly_playlist_id = ?, matched_playlist_id = ?, archive_playlist_id = ?, archive_name = ?,
			track_count = ?, error = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(run.Outcome()),
		run.WeeklyPlaylistID(),
		run.MatchedPlaylistID(),
		run.ArchivePlaylistID(),
		run.ArchiveName(),
		run.TrackCount(),
		run.Error(),
		nullTime(run.FinishedAt()),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return expectOne(result, run.ID())
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	return expectOne(result, id)
}

// List retrieves runs matching the given criteria, newest first, excluding soft-deleted runs.
//
// Supported criteria: "outcome" ([models.Outcome] or string), "trigger" ([models.Trigger] or string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	if outcome := criterion[models.Outcome](criteria, "outcome"); outcome != "" {
		query += " AND outcome = ?"
		args = append(args, outcome)
	}

	if trigger := criterion[models.Trigger](criteria, "trigger"); trigger != "" {
		query += " AND triggered_by = ?"
		args = append(args, trigger)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// criterion reads a string-typed criterion given either as T or as a plain string.
func criterion[T ~string](criteria map[string]any, key string) string {
	switch v := criteria[key].(type) {
	case T:
		return string(v)
	case string:
		return v
	}
	return ""
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row from [sql.Row] or [sql.Rows] into a [models.Run]
func scanRun(row scanner) (*models.Run, error) {
	var (
		id, trigger, outcome                 string
		weeklyID, matchedID, archiveID, name string
		trackCount, sequence                 int
		errText                              string
		startedAt, createdAt, updatedAt      time.Time
		finishedAt, deletedAt                sql.NullTime
	)

	err := row.Scan(&id, &sequence, &trigger, &outcome, &weeklyID, &matchedID, &archiveID, &name, &trackCount,
		&errText, &startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no matching run", shared.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewRun(sequence, models.Trigger(trigger), startedAt)
	run.SetID(id)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	var finished *time.Time
	if finishedAt.Valid {
		finished = &finishedAt.Time
	}
	run.Restore(models.Outcome(outcome), weeklyID, matchedID, archiveID, name, trackCount, errText, finished)

	return run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectOne(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: not found or already deleted: %s", shared.ErrRunNotFound, id)
	}
	return nil
}
