package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of one authorization callback.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// Exchanger trades an authorization code for a token. [oauth2.Config] implements it.
type Exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// OAuthHandler serves the redirect of the authorization code flow.
//
// Only the first request with a matching state is handled; later ones are rejected so a replayed code is never
// exchanged.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	handled   atomic.Bool
	result    chan OAuthResult
}

// NewOAuthHandler creates a handler that accepts callbacks carrying state, which should be random per flow.
func NewOAuthHandler(exchanger Exchanger, state string) *OAuthHandler {
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		result:    make(chan OAuthResult, 1),
	}
}

func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP rejects requests without the flow's state and leaves the flow waiting. The first request carrying the
// state ends it, successfully or not.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("state") != h.state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if !h.handled.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	token, status, err := h.exchange(r)
	h.result <- OAuthResult{Token: token, err: err}
	close(h.result)

	if err != nil {
		http.Error(w, http.StatusText(status)+": "+err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// exchange trades the callback's code for a token.
func (h *OAuthHandler) exchange(r *http.Request) (*oauth2.Token, int, error) {
	query := r.URL.Query()

	code := query.Get("code")
	if code == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("authorization denied: %s %s",
			query.Get("error"), query.Get("error_description"))
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, http.StatusOK, nil
}

// Result receives exactly one result, then is closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>dwarchive authorized</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; background: #181818; padding: 2rem; border-radius: 8px; }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Discover Weekly archiver authorized</h1>
        <p>Tokens are saved. You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
