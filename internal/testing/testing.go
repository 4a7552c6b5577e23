// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/services"
)

// CreateCall records one [FakeService.CreatePlaylist] call.
type CreateCall struct {
	UserID string
	Name   string
	Public bool
}

// AddCall records one [FakeService.AddTracks] call.
type AddCall struct {
	UserID     string
	PlaylistID string
	TrackIDs   []string
}

// FakeService is an in-memory [services.Service] that pages its playlists and tracks and records every write.
type FakeService struct {
	mu sync.Mutex

	UserID    string
	Playlists []models.Playlist
	Tracks    map[string][]string
	PageSize  int

	UserErr   error
	ListErr   error
	TracksErr map[string]error
	CreateErr error
	AddErr    error
	RemoveErr error

	Created      []CreateCall
	Added        []AddCall
	Removed      []string
	ListCalls    int
	TrackFetches map[string]int
}

var _ services.Service = (*FakeService)(nil)

// NewFakeService returns an empty account owned by userID that serves two items per page.
func NewFakeService(userID string) *FakeService {
	return &FakeService{
		UserID:       userID,
		Tracks:       map[string][]string{},
		TracksErr:    map[string]error{},
		TrackFetches: map[string]int{},
		PageSize:     2,
	}
}

// AddPlaylist adds a playlist whose track count is len(trackIDs).
func (f *FakeService) AddPlaylist(id, name, ownerID string, trackIDs ...string) *FakeService {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Playlists = append(f.Playlists, models.Playlist{ID: id, Name: name, OwnerID: ownerID, TrackCount: len(trackIDs)})
	f.Tracks[id] = append([]string(nil), trackIDs...)
	return f
}

// Writes returns the number of mutating calls made.
func (f *FakeService) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Created) + len(f.Added) + len(f.Removed)
}

func (f *FakeService) Name() string { return "fake" }

func (f *FakeService) CurrentUserID(ctx context.Context) (string, error) {
	if f.UserErr != nil {
		return "", f.UserErr
	}
	return f.UserID, nil
}

func (f *FakeService) PlaylistsPage(ctx context.Context, cursor string) (*services.Page[models.Playlist], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	items, next, err := page(f.Playlists, cursor, f.PageSize)
	if err != nil {
		return nil, err
	}
	return &services.Page[models.Playlist]{Items: items, Next: next}, nil
}

func (f *FakeService) PlaylistTracksPage(ctx context.Context, playlistID, cursor string) (*services.Page[models.TrackRef], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cursor == "" {
		f.TrackFetches[playlistID]++
	}
	if err := f.TracksErr[playlistID]; err != nil {
		return nil, err
	}

	ids, ok := f.Tracks[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist %s does not exist", playlistID)
	}

	refs := make([]models.TrackRef, len(ids))
	for i, id := range ids {
		refs[i] = models.TrackRef{ID: id}
	}

	items, next, err := page(refs, cursor, f.PageSize)
	if err != nil {
		return nil, err
	}
	return &services.Page[models.TrackRef]{Items: items, Next: next}, nil
}

func (f *FakeService) CreatePlaylist(ctx context.Context, userID, name string, public bool) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Created = append(f.Created, CreateCall{UserID: userID, Name: name, Public: public})
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	p := models.Playlist{ID: fmt.Sprintf("archive-%d", len(f.Created)), Name: name, OwnerID: userID, Public: public}
	f.Playlists = append(f.Playlists, p)
	f.Tracks[p.ID] = nil
	return &p, nil
}

func (f *FakeService) AddTracks(ctx context.Context, userID, playlistID string, trackIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Added = append(f.Added, AddCall{UserID: userID, PlaylistID: playlistID, TrackIDs: append([]string(nil), trackIDs...)})
	if f.AddErr != nil {
		return f.AddErr
	}

	f.Tracks[playlistID] = append(f.Tracks[playlistID], trackIDs...)
	for i := range f.Playlists {
		if f.Playlists[i].ID == playlistID {
			f.Playlists[i].TrackCount = len(f.Tracks[playlistID])
		}
	}
	return nil
}

func (f *FakeService) RemovePlaylist(ctx context.Context, playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Removed = append(f.Removed, playlistID)
	if f.RemoveErr != nil {
		return f.RemoveErr
	}

	kept := f.Playlists[:0]
	for _, p := range f.Playlists {
		if p.ID != playlistID {
			kept = append(kept, p)
		}
	}
	f.Playlists = kept
	delete(f.Tracks, playlistID)
	return nil
}

func page[T any](all []T, cursor string, size int) ([]T, string, error) {
	if size <= 0 {
		size = len(all) + 1
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("bad cursor %q", cursor)
		}
		offset = n
	}
	if offset > len(all) {
		offset = len(all)
	}

	end := min(offset+size, len(all))
	items := append([]T(nil), all[offset:end]...)

	next := ""
	if end < len(all) {
		next = strconv.Itoa(end)
	}
	return items, next, nil
}

// Sequence returns n track ids "t01".."tNN" in order.
func Sequence(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%02d", i+1)
	}
	return ids
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
