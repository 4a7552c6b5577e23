// Package services defines the [Service] interface for the remote music account and implements it for Spotify.
//
// # Service Interface
//
// The archiver needs six account operations: current user id, paginated playlists, paginated playlist tracks,
// playlist creation, bulk track insertion and playlist removal. Pagination is cursor based: callers pass the
// [Page.Next] cursor back until it is empty.
//
// # Spotify Implementation
//
// [SpotifyService] wraps a [spotify.Client] from zmb3/spotify. Authentication uses [oauth2] with the Spotify
// endpoints and scopes from spotifyauth; the token source is wrapped so refreshed tokens can be persisted through
// [SpotifyService.SetTokenRefreshCallback].
//
// Every request passes through a [rate.Limiter] transport. HTTP 429 responses are retried by the spotify client
// when retries are enabled.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token configured
//   - [shared.ErrTokenExpired] : HTTP 401 or refresh failure, reauthorization needed
//   - [shared.ErrAPIRequest] : any other failed request
package services
