package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dwarchive/internal/services"
	"github.com/desertthunder/dwarchive/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultAuthTimeout = 2 * time.Minute

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	spotify     services.Service
	logger      *log.Logger
	output      io.Writer
	clock       func() time.Time
	openBrowser func(url string) error
	authTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Spotify     services.Service
	Logger      *log.Logger
	Output      io.Writer
	Clock       func() time.Time
	OpenBrowser func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		spotify:     opts.Spotify,
		logger:      opts.Logger,
		output:      opts.Output,
		clock:       opts.Clock,
		openBrowser: opts.OpenBrowser,
		authTimeout: defaultAuthTimeout,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, runCommand, scheduleCommand, playlistsCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration and connects the Spotify service ahead of every command.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if err := r.loadConfig(); err != nil {
		return ctx, err
	}

	return ctx, r.connect(ctx)
}

// loadConfig reads the config file when present, falling back to defaults, then applies environment overrides.
func (r *Runner) loadConfig() error {
	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		if config, err = shared.LoadConfig(r.configPath); err != nil {
			return err
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	shared.ApplyEnv(config)
	if err := config.Validate(); err != nil {
		return err
	}

	r.config = config
	return nil
}

// connect builds the Spotify service from configured credentials and authenticates it with a stored token.
//
// Missing credentials are not an error here; commands that need the service report it.
func (r *Runner) connect(ctx context.Context) error {
	if r.spotify != nil {
		return nil
	}

	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		r.logger.Debug("spotify credentials not configured")
		return nil
	}

	svc, err := services.NewSpotifyService(creds.Map(),
		services.WithRateLimit(r.config.API.RequestsPerSecond),
		services.WithRetry(r.config.API.Retry),
	)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveTokens(token); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
			return
		}
		r.logger.Debug("persisted refreshed token", "expiry", token.Expiry)
	})

	if creds.HasToken() {
		if err := svc.OAuthenticate(ctx, creds.Token()); err != nil {
			return fmt.Errorf("failed to authenticate with stored token: %w", err)
		}
	}

	r.spotify = svc
	return nil
}

// service returns the account service or explains why there is none.
func (r *Runner) service() (services.Service, error) {
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: set credentials.spotify.client_id and client_secret (or %s and %s)",
			shared.ErrMissingCredentials, shared.EnvClientID, shared.EnvClientSecret)
	}
	return r.spotify, nil
}

// saveTokens stores token in the config and writes it to the config file when one is in use.
//
// The file is rewritten from its own contents with only the token replaced, so environment overrides applied to
// r.config never reach the disk.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	onDisk := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		if onDisk, err = shared.LoadConfig(r.configPath); err != nil {
			return fmt.Errorf("failed to read config for token update: %w", err)
		}
	}

	if err := onDisk.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(r.configPath, onDisk); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// now returns the current time in the schedule's time zone.
func (r *Runner) now() time.Time {
	loc, err := r.config.Schedule.Location()
	if err != nil {
		loc = time.Local
	}
	return r.clock().In(loc)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
