package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/dwarchive/internal/server"
	"github.com/desertthunder/dwarchive/internal/services"
	"github.com/desertthunder/dwarchive/internal/shared"
	"github.com/desertthunder/dwarchive/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	oauthSrv, ok := svc.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: %s does not support OAuth2", shared.ErrInvalidArgument, svc.Name())
	}

	token, err := r.doOAuth(ctx, oauthSrv)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	if err := oauthSrv.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}

	r.writePlainln("%s", ui.Success("Authorization successful"))
	if r.configPath != "" {
		r.writePlain("%s\n", ui.Success("Tokens saved to "+r.configPath))
	}
	r.writePlain("%s\n", ui.Help("You can now use: dwarchive run"))

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv, state)

	logger := shared.WithLogger(r.logger, "component", "oauth")
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(logger), server.RequestLogger(logger))
	router.Handler(oauthHandler)

	callbackServer, err := server.Listen(net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port)), router)
	if err != nil {
		return nil, err
	}
	logger.Info("started OAuth callback server", "addr", callbackServer.Addr())

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := callbackServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("%s", ui.Warn("Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", r.authTimeout)

	timeout := time.NewTimer(r.authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-callbackServer.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, r.authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
