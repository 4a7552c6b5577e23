// package formatter renders archive run history as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/shared"
)

// Format names accepted by [Export].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

const timeLayout = "2006-01-02 15:04:05"

// RunRecord is the exported view of a [models.Run].
type RunRecord struct {
	ID                string     `json:"id"`
	Sequence          int        `json:"sequence"`
	Trigger           string     `json:"trigger"`
	Outcome           string     `json:"outcome"`
	WeeklyPlaylistID  string     `json:"weekly_playlist_id,omitempty"`
	MatchedPlaylistID string     `json:"matched_playlist_id,omitempty"`
	ArchivePlaylistID string     `json:"archive_playlist_id,omitempty"`
	ArchiveName       string     `json:"archive_name,omitempty"`
	TrackCount        int        `json:"track_count"`
	Error             string     `json:"error,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
}

// Records converts runs into their exported view, keeping order.
func Records(runs []*models.Run) []RunRecord {
	records := make([]RunRecord, 0, len(runs))
	for _, run := range runs {
		records = append(records, RunRecord{
			ID:                run.ID(),
			Sequence:          run.Sequence(),
			Trigger:           string(run.Trigger()),
			Outcome:           string(run.Outcome()),
			WeeklyPlaylistID:  run.WeeklyPlaylistID(),
			MatchedPlaylistID: run.MatchedPlaylistID(),
			ArchivePlaylistID: run.ArchivePlaylistID(),
			ArchiveName:       run.ArchiveName(),
			TrackCount:        run.TrackCount(),
			Error:             run.Error(),
			StartedAt:         run.StartedAt(),
			FinishedAt:        run.FinishedAt(),
		})
	}
	return records
}

// Export renders runs in the named format.
func Export(format string, runs []*models.Run) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return ExportToText(runs)
	case FormatCSV:
		return ExportToCSV(runs)
	case FormatMarkdown, "md":
		return ExportToMarkdown(runs)
	case FormatJSON:
		return ExportToJSON(runs)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts runs to CSV format with columns: Sequence, Started, Trigger, Outcome, Archive, Tracks, Duration, Error
func ExportToCSV(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Started", "Trigger", "Outcome", "Archive", "Tracks", "Duration", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, run := range runs {
		record := []string{
			strconv.Itoa(run.Sequence()),
			run.StartedAt().Format(timeLayout),
			string(run.Trigger()),
			string(run.Outcome()),
			archiveOf(run),
			strconv.Itoa(run.TrackCount()),
			run.Duration().String(),
			run.Error(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts runs to a Markdown table
func ExportToMarkdown(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Archive runs\n\n")
	buf.WriteString(fmt.Sprintf("**Runs**: %d\n\n", len(runs)))

	if len(runs) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Started | Trigger | Outcome | Archive | Tracks |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for _, run := range runs {
		archive := archiveOf(run)
		if run.Outcome() == models.OutcomeFailed {
			archive = run.Error()
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %d |\n",
			run.Sequence(), run.StartedAt().Format(timeLayout), run.Trigger(), run.Outcome(),
			strings.ReplaceAll(archive, "|", `\|`), run.TrackCount()))
	}

	return buf.Bytes(), nil
}

// ExportToText converts runs to plain text, one line per run
func ExportToText(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Runs: %d\n\n", len(runs)))

	for _, run := range runs {
		buf.WriteString(fmt.Sprintf("%d. %s  %-16s %-10s", run.Sequence(), run.StartedAt().Format(timeLayout),
			run.Outcome(), run.Trigger()))
		switch {
		case run.Outcome() == models.OutcomeFailed:
			buf.WriteString("  " + run.Error())
		case archiveOf(run) != "":
			buf.WriteString("  " + archiveOf(run))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts runs to indented JSON
func ExportToJSON(runs []*models.Run) ([]byte, error) {
	data, err := json.MarshalIndent(Records(runs), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal runs: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport renders runs in the named format and writes them to path.
func WriteExport(path, format string, runs []*models.Run) error {
	if path == "" {
		return fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}

	data, err := Export(format, runs)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// archiveOf names the archive a run created or matched.
func archiveOf(run *models.Run) string {
	switch {
	case run.ArchiveName() != "" && run.ArchivePlaylistID() != "":
		return fmt.Sprintf("%s (%s)", run.ArchiveName(), run.ArchivePlaylistID())
	case run.MatchedPlaylistID() != "":
		return "matched " + run.MatchedPlaylistID()
	default:
		return run.ArchiveName()
	}
}
