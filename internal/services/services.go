// package services defines interface Service for interacting with the remote music account
//
// Spotify (zmb3/spotify)
package services

import (
	"context"

	"github.com/desertthunder/dwarchive/internal/models"
	"golang.org/x/oauth2"
)

// Page is one page of a paginated listing.
//
// Next is the cursor for the following page; it is empty on the last page.
type Page[T any] struct {
	Items []T
	Next  string
}

// Service defines the account operations the archiver needs from a music service.
type Service interface {
	// CurrentUserID returns the id of the authenticated account.
	CurrentUserID(ctx context.Context) (string, error)

	// PlaylistsPage returns one page of the account's playlists. An empty cursor starts at the first page.
	PlaylistsPage(ctx context.Context, cursor string) (*Page[models.Playlist], error)

	// PlaylistTracksPage returns one page of a playlist's entries in playlist order.
	PlaylistTracksPage(ctx context.Context, playlistID, cursor string) (*Page[models.TrackRef], error)

	// CreatePlaylist creates a playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name string, public bool) (*models.Playlist, error)

	// AddTracks appends trackIDs, in order, to the playlist.
	AddTracks(ctx context.Context, userID, playlistID string, trackIDs []string) error

	// RemovePlaylist removes a playlist from the account.
	RemovePlaylist(ctx context.Context, playlistID string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends [Service] for providers authenticated with the OAuth2 authorization code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL for the given state.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the OAuth2 configuration used for code exchange.
	GetOAuthConfig() *oauth2.Config

	// Exchange trades an authorization code for a token using the service's own HTTP client.
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// OAuthenticate configures the service with an existing token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// SetTokenRefreshCallback registers fn to receive refreshed tokens.
	SetTokenRefreshCallback(fn func(*oauth2.Token))
}
