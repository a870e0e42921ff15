package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nowplaying/internal/shared"
)

// SetupConfig writes a config file from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
		return r.writePlain("Config already exists at %s\n", configPath)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set spotify.client_id to your app's client ID\n")
	r.writePlain("2. Add %s as a redirect URI in the Spotify developer dashboard\n", shared.DefaultConfig().Spotify.RedirectURI)
	r.writePlain("3. Set store.secret_key or export %s\n", shared.SecretKeyEnv)
	r.writePlain("4. Run 'nowplaying setup database' and then 'nowplaying login'\n")
	return nil
}

// SetupDatabase creates the sqlite credential store and runs migrations.
//
// It does not need the secret key: only the schema is written.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if config.Store.Backend != shared.BackendSQLite {
		r.logger.Info("store backend has no local schema", "backend", config.Store.Backend)
		return r.writePlain("Nothing to do for the %s backend\n", config.Store.Backend)
	}

	path, err := shared.ExpandPath(config.Store.Path)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", path)
	db, err := shared.NewPrivateDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("✓ Credential store ready at %s\n", path)
}

// SetupRollback reverts the most recent sqlite migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if config.Store.Backend != shared.BackendSQLite {
		return fmt.Errorf("%w: rollback only applies to the sqlite backend", shared.ErrInvalidFlag)
	}

	path, err := shared.ExpandPath(config.Store.Path)
	if err != nil {
		return err
	}

	db, err := shared.NewPrivateDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(ctx, db); err != nil {
		return err
	}
	return r.writePlain("✓ Rolled back the latest migration\n")
}
