package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/dwarchive/internal/shared"
	"github.com/desertthunder/dwarchive/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, then initializes the database and runs migrations.
//
// With --rollback it only reverts the latest migration.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("rollback") {
		return r.rollback()
	}

	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		shared.ApplyEnv(config)
		r.config = config
		r.configPath = configPath
		r.writePlain("%s\n", ui.Success("Created "+configPath))
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)

	r.writePlain("%s\n", ui.Success("Database ready at "+r.config.Database.Path))
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret in %s (or %s and %s)\n",
		configPath, shared.EnvClientID, shared.EnvClientSecret)
	r.writePlain("2. Run 'dwarchive auth' to authorize access to your playlists\n")
	r.writePlain("3. Run 'dwarchive run' once, or 'dwarchive schedule' to archive every week\n")

	return nil
}

func (r *Runner) rollback() error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}

	r.logger.Info("rolled back migration", "path", r.config.Database.Path)
	return r.writePlain("%s\n", ui.Success("Rolled back the latest migration in "+r.config.Database.Path))
}
