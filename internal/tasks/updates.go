package tasks

import (
	"fmt"

	"github.com/desertthunder/dwarchive/internal/models"
)

// ProgressUpdate represents a progress event during an archive run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Run phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Phase is a state of the archive run.
type Phase int

const (
	PhaseLocate Phase = iota
	PhaseFetch
	PhaseDecide
	PhaseCreate
	PhaseInsert
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseLocate:
		return "locate_playlist"
	case PhaseFetch:
		return "fetch_tracks"
	case PhaseDecide:
		return "decide"
	case PhaseCreate:
		return "create_archive"
	case PhaseInsert:
		return "insert_tracks"
	case PhaseDone:
		return "done"
	default:
		return ""
	}
}

func locatingUpdate(target Target) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseLocate,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Looking for %s...", target),
	}
}

func foundPlaylistUpdate(p models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseLocate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (ID: %s)", p.Name, p.ID),
		Data:    p,
	}
}

func fetchedTracksUpdate(n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFetch,
		Step:    n,
		Total:   WeeklyTrackCount,
		Message: fmt.Sprintf("Fetched %d tracks", n),
	}
}

func searchingArchivesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseDecide,
		Step:    0,
		Total:   1,
		Message: "Searching for an existing archive...",
	}
}

func alreadyArchivedUpdate(p *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseDecide,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Already archived as %q", p.Name),
		Data:    p,
	}
}

func notArchivedUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseDecide,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Not archived yet, archive will be %q", name),
	}
}

func creatingArchiveUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseCreate,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func createdArchiveUpdate(p *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseCreate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", p.Name, p.ID),
		Data:    p,
	}
}

func insertingTracksUpdate(n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseInsert,
		Step:    0,
		Total:   n,
		Message: fmt.Sprintf("Adding %d tracks...", n),
	}
}

func doneUpdate(result *Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseDone,
		Step:    1,
		Total:   1,
		Message: result.Summary(),
		Data:    result,
	}
}
