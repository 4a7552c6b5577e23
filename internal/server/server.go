package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Middleware decorates a handler.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the paths it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers behind a middleware stack.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// CallbackServer is a short-lived HTTP server for receiving redirects such as the OAuth callback.
type CallbackServer struct {
	listener net.Listener
	srv      *http.Server
	errs     chan error
}

// Listen binds addr and starts serving handler in the background.
//
// Binding happens before Listen returns, so a redirect that arrives right after it is not refused.
func Listen(addr string, handler http.Handler) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &CallbackServer{
		listener: listener,
		srv:      &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		errs:     make(chan error, 1),
	}

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()

	return s, nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

// Errors delivers a serve failure. It never receives after a clean shutdown.
func (s *CallbackServer) Errors() <-chan error {
	return s.errs
}

// Shutdown stops accepting connections and waits for active requests until ctx is done.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
