package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nullisdefined/worlds-subscription/internal/services"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, initializes the database and
// runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	r.config = config

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ wordsub is ready\n")
	r.writePlain("Next: run 'wordsub login' to sign in with Kakao\n")
	return nil
}

// reloadConfig applies the command's --config flag before a command action runs.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	configPath := cmd.String("config")
	if configPath == "" {
		return
	}
	if _, err := os.Stat(configPath); err != nil {
		return
	}
	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current", "path", configPath, "error", err)
		return
	}
	if r.manager == nil && config.API.BaseURL != r.config.API.BaseURL {
		r.gateway = services.NewSubscriptionGateway(config.API.BaseURL, r.httpClient, r.logger)
	}
	r.config = config
}
