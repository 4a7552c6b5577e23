package shared

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override values from config.toml.
const (
	EnvClientID     = "SPOTIFY_ID"
	EnvClientSecret = "SPOTIFY_SECRET"
	EnvRedirectURI  = "SPOTIFY_REDIRECT_URI"
	EnvDatabasePath = "DWARCHIVE_DB"
	EnvSchedule     = "DWARCHIVE_SCHEDULE"
)

// LoadEnv loads variables from the given .env files (".env" when none are given) into the process environment.
//
// Missing files are not an error. Variables already set in the environment win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides config values with any non-empty environment variables.
func ApplyEnv(config *Config) {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	override(&config.Credentials.Spotify.ClientID, EnvClientID)
	override(&config.Credentials.Spotify.ClientSecret, EnvClientSecret)
	override(&config.Credentials.Spotify.RedirectURI, EnvRedirectURI)
	override(&config.Database.Path, EnvDatabasePath)
	override(&config.Schedule.Cron, EnvSchedule)
}
