package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/tasks"
)

func TestPalette(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
		mark   string
	}{
		{"Success", Success, MarkSuccess},
		{"Info", Info, MarkInfo},
		{"Warn", Warn, MarkWarn},
		{"Error", Error, MarkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.render("hello")
			if !strings.Contains(got, tt.mark+" hello") {
				t.Errorf("expected %q marker, got %q", tt.mark, got)
			}
		})
	}

	t.Run("Title and Help keep text", func(t *testing.T) {
		if !strings.Contains(Title("Runs"), "Runs") {
			t.Error("title lost its text")
		}
		if !strings.Contains(Help("next"), "next") {
			t.Error("help lost its text")
		}
	})
}

func TestStatusLine(t *testing.T) {
	weekly := models.Playlist{ID: "dw", Name: tasks.WeeklyPlaylistName}

	t.Run("archived", func(t *testing.T) {
		result := &tasks.Result{Outcome: models.OutcomeArchived, Inserted: 30, ArchiveName: "07-04-25 DW"}
		got := StatusLine(result, nil)
		if !strings.Contains(got, `✓ Archived 30 tracks to "07-04-25 DW"`) {
			t.Errorf("unexpected status line: %q", got)
		}
		if strings.Contains(got, MarkWarn) {
			t.Error("no warning expected without dropped tracks")
		}
	})

	t.Run("archived with dropped tracks", func(t *testing.T) {
		result := &tasks.Result{Outcome: models.OutcomeArchived, Inserted: 29, Dropped: 1, ArchiveName: "07-04-25 DW"}
		got := StatusLine(result, nil)
		if !strings.Contains(got, "1 unavailable tracks were left out") {
			t.Errorf("expected dropped warning, got %q", got)
		}
	})

	t.Run("already archived", func(t *testing.T) {
		matched := &models.Playlist{ID: "old", Name: "31-03-25 DW"}
		result := &tasks.Result{Outcome: models.OutcomeAlreadyArchived, Weekly: weekly, Matched: matched}
		got := StatusLine(result, nil)
		if !strings.Contains(got, `• Discover Weekly already archived as "31-03-25 DW"`) {
			t.Errorf("unexpected status line: %q", got)
		}
	})

	t.Run("dry run", func(t *testing.T) {
		result := &tasks.Result{Outcome: models.OutcomeDryRun, Tracks: 30, ArchiveName: "07-04-25 DW"}
		if got := StatusLine(result, nil); !strings.HasPrefix(got, MarkInfo) {
			t.Errorf("expected info line, got %q", got)
		}
	})

	t.Run("failed", func(t *testing.T) {
		result := &tasks.Result{Outcome: models.OutcomeFailed}
		got := StatusLine(result, errors.New("boom"))
		if !strings.Contains(got, "✗ Archive run failed: boom") {
			t.Errorf("unexpected status line: %q", got)
		}
	})

	t.Run("nil result", func(t *testing.T) {
		if got := StatusLine(nil, nil); !strings.Contains(got, MarkError) {
			t.Errorf("expected error line, got %q", got)
		}
	})
}

func TestProgressLine(t *testing.T) {
	got := ProgressLine(tasks.ProgressUpdate{Phase: tasks.PhaseFetch, Message: "Fetched 30 tracks"})
	if !strings.Contains(got, "→ Fetched 30 tracks") {
		t.Errorf("unexpected progress line: %q", got)
	}
}
