package tasks

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/services"
	"github.com/desertthunder/dwarchive/internal/shared"
)

const (
	WeeklyPlaylistName  = "Discover Weekly"
	WeeklyPlaylistOwner = "spotify"
	WeeklyTrackCount    = 30
	ArchiveSuffix       = "DW"

	// DD-MM-YY
	archiveDateLayout = "02-01-06"
)

// ErrNoPlaylists is returned by [Locate] when the account has no playlists at all.
var ErrNoPlaylists = fmt.Errorf("%w: account has no playlists", shared.ErrPlaylistNotFound)

// Target identifies the weekly playlist by name and owner.
type Target struct {
	Name    string
	OwnerID string
}

// WeeklyTarget returns the Discover Weekly target.
func WeeklyTarget() Target {
	return Target{Name: WeeklyPlaylistName, OwnerID: WeeklyPlaylistOwner}
}

func (t Target) String() string {
	return fmt.Sprintf("%q by %s", t.Name, t.OwnerID)
}

// Matches reports whether p is the target playlist.
func (t Target) Matches(p models.Playlist) bool {
	return p.Is(t.Name, t.OwnerID)
}

// RunContext is the state gathered by one run before the archive decision. It is built once and never modified;
// accessors return copies.
type RunContext struct {
	now       time.Time
	target    Target
	weekly    models.Playlist
	tracks    []string
	canonical []string
}

// NewRunContext builds the context for a run at now from the located weekly playlist and its native track order.
func NewRunContext(now time.Time, target Target, weekly models.Playlist, tracks []string) RunContext {
	native := slices.Clone(tracks)
	return RunContext{
		now:       now,
		target:    target,
		weekly:    weekly,
		tracks:    native,
		canonical: Canonical(native),
	}
}

func (rc RunContext) Now() time.Time { return rc.now }
func (rc RunContext) Target() Target { return rc.target }
func (rc RunContext) Weekly() models.Playlist { return rc.weekly }

// Tracks returns the weekly playlist's track ids in playlist order.
func (rc RunContext) Tracks() []string { return slices.Clone(rc.tracks) }

// Canonical returns the weekly playlist's track ids in canonical order.
func (rc RunContext) Canonical() []string { return slices.Clone(rc.canonical) }

// Locate pages through the account's playlists and returns the first one matching target.
//
// The error wraps [shared.ErrPlaylistNotFound] when no playlist matches, and is [ErrNoPlaylists] when the account
// has none.
func Locate(ctx context.Context, svc services.Service, target Target) (models.Playlist, error) {
	seen := 0
	cursor := ""
	for {
		page, err := svc.PlaylistsPage(ctx, cursor)
		if err != nil {
			return models.Playlist{}, fmt.Errorf("failed to list playlists: %w", err)
		}

		seen += len(page.Items)
		for _, p := range page.Items {
			if target.Matches(p) {
				return p, nil
			}
		}

		if page.Next == "" {
			break
		}
		cursor = page.Next
	}

	if seen == 0 {
		return models.Playlist{}, ErrNoPlaylists
	}
	return models.Playlist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, target)
}

// ListPlaylists pages through the account's playlists in account order. A positive limit stops after that many.
func ListPlaylists(ctx context.Context, svc services.Service, limit int) ([]models.Playlist, error) {
	var playlists []models.Playlist
	cursor := ""
	for {
		page, err := svc.PlaylistsPage(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlists: %w", err)
		}

		playlists = append(playlists, page.Items...)
		if limit > 0 && len(playlists) >= limit {
			return playlists[:limit], nil
		}

		if page.Next == "" {
			return playlists, nil
		}
		cursor = page.Next
	}
}

// FetchTracks returns every track id of the playlist in playlist order. Absent ids are empty strings.
func FetchTracks(ctx context.Context, svc services.Service, playlistID string) ([]string, error) {
	var ids []string
	cursor := ""
	for {
		page, err := svc.PlaylistTracksPage(ctx, playlistID, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list tracks of %s: %w", playlistID, err)
		}

		for _, ref := range page.Items {
			ids = append(ids, ref.ID)
		}

		if page.Next == "" {
			return ids, nil
		}
		cursor = page.Next
	}
}

// Canonical returns a copy of ids sorted ascending. Empty (absent) ids sort first.
func Canonical(ids []string) []string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return sorted
}

// FindArchive scans the account for a previous archive of the run's weekly playlist.
//
// Candidates are playlists other than the weekly one with exactly [WeeklyTrackCount] tracks. A candidate matches
// when its canonical ids equal the weekly canonical ids in all [WeeklyTrackCount] positions. The first match is
// returned; nil means no archive exists.
func FindArchive(ctx context.Context, svc services.Service, rc RunContext) (*models.Playlist, error) {
	target := rc.canonical
	if len(target) < WeeklyTrackCount {
		return nil, nil
	}

	cursor := ""
	for {
		page, err := svc.PlaylistsPage(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlists: %w", err)
		}

		for _, p := range page.Items {
			if !isCandidate(p, rc) {
				continue
			}

			ids, err := FetchTracks(ctx, svc, p.ID)
			if err != nil {
				return nil, err
			}

			if sameUpTo(target, Canonical(ids), WeeklyTrackCount) {
				return &p, nil
			}
		}

		if page.Next == "" {
			return nil, nil
		}
		cursor = page.Next
	}
}

func isCandidate(p models.Playlist, rc RunContext) bool {
	if p.ID == rc.weekly.ID || rc.target.Matches(p) {
		return false
	}
	return p.TrackCount == WeeklyTrackCount
}

// sameUpTo reports whether a and b agree in their first n positions. Shorter sequences never agree.
func sameUpTo(a, b []string, n int) bool {
	if len(a) < n || len(b) < n {
		return false
	}
	return slices.Equal(a[:n], b[:n])
}

// ArchiveName returns the archive playlist name for a run on t, e.g. "07-04-25 DW".
func ArchiveName(t time.Time) string {
	return t.Format(archiveDateLayout) + " " + ArchiveSuffix
}

// insertable drops absent ids from tracks, keeping order, and reports how many were dropped.
func insertable(tracks []string) ([]string, int) {
	ids := make([]string, 0, len(tracks))
	for _, id := range tracks {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, len(tracks) - len(ids)
}
