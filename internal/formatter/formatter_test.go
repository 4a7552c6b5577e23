package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/shared"
	th "github.com/desertthunder/dwarchive/internal/testing"
)

var started = time.Date(2025, time.April, 7, 3, 0, 0, 0, time.UTC)

func sampleRuns() []*models.Run {
	archived := models.NewRun(2, models.TriggerScheduled, started)
	archived.SetID("run-2")
	archived.SetWeeklyPlaylist("dw")
	archived.SetTrackCount(30)
	archived.Finish(started.Add(3*time.Second), models.OutcomeArchived, "", "new1", "07-04-25 DW")

	failed := models.NewRun(1, models.TriggerCatchUp, started.Add(-time.Hour))
	failed.SetID("run-1")
	failed.Fail(started.Add(-time.Hour+time.Second), shared.ErrTokenExpired, "", "")

	return []*models.Run{archived, failed}
}

func TestExporters(t *testing.T) {
	runs := sampleRuns()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(runs)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Sequence,Started,Trigger,Outcome,Archive,Tracks,Duration,Error") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "2,2025-04-07 03:00:00,scheduled,archived,07-04-25 DW (new1),30,3s,") {
			t.Errorf("CSV missing archived run, got: %s", output)
		}
		if !strings.Contains(output, shared.ErrTokenExpired.Error()) {
			t.Errorf("CSV missing failure text")
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(runs)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Archive runs") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Runs**: 2") {
			t.Errorf("Markdown missing run count")
		}
		if !strings.Contains(output, "| 2 | 2025-04-07 03:00:00 | scheduled | archived | 07-04-25 DW (new1) | 30 |") {
			t.Errorf("Markdown missing archived row, got: %s", output)
		}
		if !strings.Contains(output, "| failed | "+shared.ErrTokenExpired.Error()) {
			t.Errorf("Markdown missing failure row, got: %s", output)
		}

		t.Run("empty", func(t *testing.T) {
			data, _ := ExportToMarkdown(nil)
			if strings.Contains(string(data), "|---") {
				t.Error("empty history should not render a table")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(runs)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Runs: 2") {
			t.Errorf("Text missing run count")
		}
		if !strings.Contains(output, "07-04-25 DW (new1)") {
			t.Errorf("Text missing archive, got: %s", output)
		}
		if !strings.Contains(output, shared.ErrTokenExpired.Error()) {
			t.Errorf("Text missing failure text")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(runs)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var records []RunRecord
		if err := json.Unmarshal(data, &records); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].ID != "run-2" || records[0].ArchiveName != "07-04-25 DW" || records[0].FinishedAt == nil {
			t.Errorf("unexpected first record: %+v", records[0])
		}
		if records[1].Outcome != "failed" || records[1].Error == "" {
			t.Errorf("unexpected second record: %+v", records[1])
		}
	})
}

func TestExport(t *testing.T) {
	runs := sampleRuns()

	tests := []struct {
		format string
		want   string
	}{
		{"", "Runs: 2"},
		{"text", "Runs: 2"},
		{"CSV", "Sequence,Started"},
		{"md", "# Archive runs"},
		{"markdown", "# Archive runs"},
		{"json", `"sequence": 2`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := Export(tt.format, runs)
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("expected %q in output, got: %s", tt.want, data)
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		if _, err := Export("xml", runs); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("writes file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "runs.csv")
		if err := WriteExport(path, FormatCSV, sampleRuns()); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "07-04-25 DW") {
			t.Error("export file missing archive name")
		}
	})

	t.Run("requires a path", func(t *testing.T) {
		if err := WriteExport("", FormatCSV, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "runs.csv")
		if err := WriteExport(path, FormatText, nil); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
