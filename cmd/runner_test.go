package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dwarchive/internal/services"
	"github.com/desertthunder/dwarchive/internal/shared"
	tu "github.com/desertthunder/dwarchive/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// monday is a run date whose archive name is "07-04-25 DW".
var monday = time.Date(2025, time.April, 7, 10, 0, 0, 0, time.UTC)

// newTestRunner returns a runner over svc with its database and lock in a temp dir.
func newTestRunner(t *testing.T, svc services.Service) (*Runner, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "dwarchive.db")
	config.Schedule.LockPath = filepath.Join(dir, "dwarchive.lock")
	config.Schedule.Timezone = "UTC"

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: svc,
		Logger:  log.New(io.Discard),
		Output:  output,
		Clock:   func() time.Time { return monday },
	})
	return runner, output
}

// runApp runs the registered commands with args, without the config-loading Before hook.
func runApp(r *Runner, args ...string) error {
	app := &cli.Command{Name: "dwarchive", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"dwarchive"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			svc := tu.NewFakeService("me")

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "config.toml",
				Logger:     logger,
				Output:     output,
				Spotify:    svc,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "config.toml" {
				t.Error("expected configPath to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.spotify != svc {
				t.Error("expected spotify to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.clock == nil || runner.openBrowser == nil {
				t.Error("expected clock and browser opener defaults")
			}
			if runner.authTimeout != defaultAuthTimeout {
				t.Errorf("expected default auth timeout, got %v", runner.authTimeout)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "run", "schedule", "playlists", "history"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("expected command %q at index %d, got %v", want[i], i, cmd)
			}
		}
	})

	t.Run("saveTokens", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")

			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "test_id"
			config.Credentials.Spotify.ClientSecret = "test_secret"
			if err := shared.SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath})

			token := &oauth2.Token{AccessToken: "new_access_token", RefreshToken: "new_refresh_token"}
			if err := runner.saveTokens(token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loadedConfig, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loadedConfig.Credentials.Spotify.AccessToken != "new_access_token" {
				t.Errorf("expected access token to be updated, got %s", loadedConfig.Credentials.Spotify.AccessToken)
			}
			if loadedConfig.Credentials.Spotify.RefreshToken != "new_refresh_token" {
				t.Errorf("expected refresh token to be updated, got %s", loadedConfig.Credentials.Spotify.RefreshToken)
			}
			if loadedConfig.Credentials.Spotify.ClientID != "test_id" {
				t.Error("expected credentials to be preserved")
			}
		})

		t.Run("keeps environment overrides out of the file", func(t *testing.T) {
			t.Setenv(shared.EnvClientID, "env-id")
			t.Setenv(shared.EnvClientSecret, "env-secret")
			t.Setenv(shared.EnvDatabasePath, filepath.Join(t.TempDir(), "env.db"))
			t.Setenv(shared.EnvSchedule, "0 4 * * 2")

			configPath := filepath.Join(t.TempDir(), "config.toml")
			fileConfig := shared.DefaultConfig()
			fileConfig.Credentials.Spotify.ClientID = "file-id"
			fileConfig.Credentials.Spotify.ClientSecret = ""
			fileConfig.Database.Path = "./file.db"
			if err := shared.SaveConfig(configPath, fileConfig); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{ConfigPath: configPath, Logger: log.New(io.Discard)})
			if err := runner.loadConfig(); err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			if runner.config.Credentials.Spotify.ClientSecret != "env-secret" {
				t.Fatalf("expected env secret in effect, got %q", runner.config.Credentials.Spotify.ClientSecret)
			}

			if err := runner.saveTokens(&oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			raw := tu.MustReadFile(t, configPath)
			for _, leaked := range []string{"env-id", "env-secret", "env.db", "0 4 * * 2"} {
				if strings.Contains(raw, leaked) {
					t.Errorf("environment value %q written to config file", leaked)
				}
			}

			saved, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if saved.Credentials.Spotify.AccessToken != "a" || saved.Credentials.Spotify.RefreshToken != "r" {
				t.Errorf("expected tokens saved, got %+v", saved.Credentials.Spotify)
			}
			if saved.Credentials.Spotify.ClientID != "file-id" || saved.Database.Path != "./file.db" {
				t.Errorf("expected file values preserved, got %q %q", saved.Credentials.Spotify.ClientID, saved.Database.Path)
			}
			if runner.config.Credentials.Spotify.AccessToken != "a" {
				t.Error("expected in-memory config to carry the new token")
			}
		})

		t.Run("handles nil config error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/tmp/test.toml"})
			runner.config = nil

			err := runner.saveTokens(&oauth2.Token{AccessToken: "test"})
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.saveTokens(&oauth2.Token{AccessToken: "new_token"}); err != nil {
				t.Fatalf("expected no error with empty path, got %v", err)
			}
			if config.Credentials.Spotify.AccessToken != "new_token" {
				t.Error("expected config to be updated in memory")
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			invalidPath := filepath.Join(t.TempDir(), "missing", "config.toml")
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), ConfigPath: invalidPath})

			err := runner.saveTokens(&oauth2.Token{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "failed to save config") {
				t.Errorf("expected save config error, got %v", err)
			}
		})

		t.Run("handles Update error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig()})

			err := runner.saveTokens(nil)
			if err == nil || !strings.Contains(err.Error(), "failed to update spotify configuration") {
				t.Errorf("expected update error, got %v", err)
			}
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput in chain, got %v", err)
			}
		})
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(shared.EnvSchedule, "")
	t.Setenv(shared.EnvDatabasePath, "")

	t.Run("reads the config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := shared.DefaultConfig()
		config.Archive.Public = false
		if err := shared.SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		runner := NewRunner(RunnerOpts{ConfigPath: configPath, Logger: log.New(io.Discard)})
		if err := runner.loadConfig(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.config.Archive.Public {
			t.Error("expected archive.public from file")
		}
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(t.TempDir(), "nope.toml"), Logger: log.New(io.Discard)})
		if err := runner.loadConfig(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.config.Schedule.Cron != "0 3 * * 1" {
			t.Errorf("expected default schedule, got %s", runner.config.Schedule.Cron)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv(shared.EnvSchedule, "0 4 * * 1")

		runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(t.TempDir(), "nope.toml"), Logger: log.New(io.Discard)})
		if err := runner.loadConfig(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.config.Schedule.Cron != "0 4 * * 1" {
			t.Errorf("expected schedule from environment, got %s", runner.config.Schedule.Cron)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := shared.DefaultConfig()
		config.Schedule.Timezone = "Mars/Olympus_Mons"
		if err := shared.SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		runner := NewRunner(RunnerOpts{ConfigPath: configPath, Logger: log.New(io.Discard)})
		if err := runner.loadConfig(); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("without credentials leaves service unset", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = ""
		config.Credentials.Spotify.ClientSecret = ""
		runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard)})

		if err := runner.connect(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := runner.service(); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("with credentials and token builds Spotify service", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = "id"
		config.Credentials.Spotify.ClientSecret = "secret"
		config.Credentials.Spotify.AccessToken = "access"
		config.Credentials.Spotify.RefreshToken = "refresh"
		runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard)})

		if err := runner.connect(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		svc, ok := runner.spotify.(*services.SpotifyService)
		if !ok {
			t.Fatalf("expected *services.SpotifyService, got %T", runner.spotify)
		}
		if svc.Token() == nil || svc.Token().AccessToken != "access" {
			t.Errorf("expected stored token, got %+v", svc.Token())
		}
	})

	t.Run("keeps an injected service", func(t *testing.T) {
		fake := tu.NewFakeService("me")
		runner := NewRunner(RunnerOpts{Spotify: fake, Logger: log.New(io.Discard)})

		if err := runner.connect(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.spotify != fake {
			t.Error("expected injected service to be kept")
		}
	})
}
