package ui

import (
	"fmt"

	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/tasks"
)

// StatusLine renders the one-line outcome of an archive run.
//
// A nil result or a failed run renders err.
func StatusLine(result *tasks.Result, err error) string {
	if err != nil || result == nil {
		if err == nil {
			err = fmt.Errorf("no result")
		}
		return Error(fmt.Sprintf("Archive run failed: %v", err))
	}

	switch result.Outcome {
	case models.OutcomeArchived:
		line := Success(result.Summary())
		if result.Dropped > 0 {
			line += "\n" + Warn(fmt.Sprintf("%d unavailable tracks were left out", result.Dropped))
		}
		return line
	case models.OutcomeAlreadyArchived, models.OutcomeDryRun:
		return Info(result.Summary())
	default:
		return Warn(result.Summary())
	}
}

// ProgressLine renders one progress update as an arrow line.
func ProgressLine(update tasks.ProgressUpdate) string {
	return Help("→ " + update.Message)
}
