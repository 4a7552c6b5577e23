// Spotify Web API implementation of [Service]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultRedirectURI = "http://127.0.0.1:3000/callback"
	pageSize           = 50
	maxTracksPerAdd    = 100
)

// Scopes requested during authorization.
var spotifyScopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the API client at a different host. The URL must end with a slash.
func WithBaseURL(url string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = url }
}

// WithRateLimit caps outgoing requests per second. Zero or less disables the limit.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetry enables retrying rate-limited (HTTP 429) requests.
func WithRetry(retry bool) SpotifyOption {
	return func(s *SpotifyService) { s.retry = retry }
}

// WithHTTPClient sets the base client whose transport carries authorized requests.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.baseClient = c }
}

// SpotifyService implements the Service interface for Spotify API interactions.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	retry      bool
	limiter    *rate.Limiter
	baseClient *http.Client

	mu             sync.Mutex
	token          *oauth2.Token
	client         *spotify.Client
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       spotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		baseClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Exchange trades an authorization code for a token through the service's HTTP client and rate limit.
func (s *SpotifyService) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return s.config.Exchange(s.oauthContext(ctx), code, opts...)
}

// SetTokenRefreshCallback registers fn to be called whenever a new access token is obtained.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokenRefresh = fn
}

// Authenticate configures the service from credentials holding either an "access_token" or an "auth_code".
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate builds the API client from token. Expired tokens are refreshed on first use.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrMissingCredentials)
	}

	octx := s.oauthContext(ctx)
	source := &refreshableTokenSource{
		source: s.config.TokenSource(octx, token),
		callback: func(t *oauth2.Token) {
			s.mu.Lock()
			fn := s.onTokenRefresh
			s.token = t
			s.mu.Unlock()
			if fn != nil {
				fn(t)
			}
		},
		last: token.AccessToken,
	}

	opts := []spotify.ClientOption{spotify.WithRetry(s.retry)}
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}

	s.mu.Lock()
	s.token = token
	s.client = spotify.New(oauth2.NewClient(octx, source), opts...)
	s.mu.Unlock()
	return nil
}

// oauthContext carries the rate-limited base client into oauth2 so token refreshes and API calls share it.
func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	base := s.baseClient
	if base == nil {
		base = http.DefaultClient
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if s.limiter != nil {
		transport = &rateLimitedTransport{base: transport, limiter: s.limiter}
	}

	// Detached from ctx: the client outlives the call that built it.
	return context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, &http.Client{
		Transport: transport,
		Timeout:   base.Timeout,
	})
}

func (s *SpotifyService) api() (*spotify.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return s.client, nil
}

// Token returns the current token, which may have been refreshed since authentication.
func (s *SpotifyService) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// CurrentUserID returns the authenticated user's id.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	client, err := s.api()
	if err != nil {
		return "", err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return "", wrapSpotifyError("get current user", err)
	}
	return user.ID, nil
}

// PlaylistsPage returns one page of the current user's playlists. The cursor is an offset.
func (s *SpotifyService) PlaylistsPage(ctx context.Context, cursor string) (*Page[models.Playlist], error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	offset, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}

	resp, err := client.CurrentUsersPlaylists(ctx, spotify.Limit(pageSize), spotify.Offset(offset))
	if err != nil {
		return nil, wrapSpotifyError("list playlists", err)
	}

	page := &Page[models.Playlist]{Items: make([]models.Playlist, 0, len(resp.Playlists))}
	for _, sp := range resp.Playlists {
		page.Items = append(page.Items, models.Playlist{
			ID:         string(sp.ID),
			Name:       sp.Name,
			OwnerID:    sp.Owner.ID,
			TrackCount: int(sp.Tracks.Total),
			Public:     sp.IsPublic,
		})
	}
	if resp.Next != "" && len(resp.Playlists) > 0 {
		page.Next = strconv.Itoa(offset + len(resp.Playlists))
	}

	return page, nil
}

// PlaylistTracksPage returns one page of a playlist's entries. Entries without a track (local files, removed
// tracks, podcast episodes) yield a [models.TrackRef] with an empty ID.
func (s *SpotifyService) PlaylistTracksPage(ctx context.Context, playlistID, cursor string) (*Page[models.TrackRef], error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	offset, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(pageSize), spotify.Offset(offset))
	if err != nil {
		return nil, wrapSpotifyError("list playlist tracks", err)
	}

	page := &Page[models.TrackRef]{Items: make([]models.TrackRef, 0, len(resp.Items))}
	for _, item := range resp.Items {
		var ref models.TrackRef
		if item.Track.Track != nil {
			ref.ID = string(item.Track.Track.ID)
		}
		page.Items = append(page.Items, ref)
	}
	if resp.Next != "" && len(resp.Items) > 0 {
		page.Next = strconv.Itoa(offset + len(resp.Items))
	}

	return page, nil
}

// CreatePlaylist creates an empty playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name string, public bool) (*models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	created, err := client.CreatePlaylistForUser(ctx, userID, name, "", public, false)
	if err != nil {
		return nil, wrapSpotifyError("create playlist", err)
	}

	ownerID := created.Owner.ID
	if ownerID == "" {
		ownerID = userID
	}

	return &models.Playlist{
		ID:      string(created.ID),
		Name:    created.Name,
		OwnerID: ownerID,
		Public:  public,
	}, nil
}

// AddTracks appends trackIDs to the playlist, in batches of the API maximum.
//
// A weekly playlist of 30 tracks fits in one batch, so an archive is filled by a single request.
// Spotify scopes the write by playlist, so userID is not sent.
func (s *SpotifyService) AddTracks(ctx context.Context, userID, playlistID string, trackIDs []string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	for start := 0; start < len(ids); start += maxTracksPerAdd {
		end := min(start+maxTracksPerAdd, len(ids))
		if _, err := client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids[start:end]...); err != nil {
			return wrapSpotifyError("add tracks", err)
		}
	}

	return nil
}

// RemovePlaylist unfollows the playlist, which is how Spotify deletes a playlist the user owns.
func (s *SpotifyService) RemovePlaylist(ctx context.Context, playlistID string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	if err := client.UnfollowPlaylist(ctx, spotify.ID(playlistID)); err != nil {
		return wrapSpotifyError("remove playlist", err)
	}
	return nil
}

func parseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("%w: bad page cursor %q", shared.ErrInvalidArgument, cursor)
	}
	return offset, nil
}

// wrapSpotifyError classifies err as [shared.ErrTokenExpired] (401 or failed refresh) or [shared.ErrAPIRequest].
func wrapSpotifyError(op string, err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s: %v", shared.ErrTokenExpired, op, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: %v", shared.ErrTokenExpired, op, err)
	}

	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

// refreshableTokenSource reports each new access token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

// Token implements [oauth2.TokenSource].
func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	if changed {
		r.last = token.AccessToken
	}
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.notify(token)
	}
	return token, nil
}

// notify runs the callback, containing any panic so a failing persistence hook never breaks a request.
func (r *refreshableTokenSource) notify(token *oauth2.Token) {
	defer func() { _ = recover() }()
	r.callback(token)
}
