// Package bootstrap loads configuration, logging and the database for every
// civiclens subcommand.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/civiclens/civiclens/internal/infrastructure/config"
	"github.com/civiclens/civiclens/internal/infrastructure/database"
	"github.com/civiclens/civiclens/internal/infrastructure/migration"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

// Env resolves the environment name; ENV overrides the flag value.
func Env(flagValue string) string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return flagValue
}

// Init loads config for env and initializes the process logger.
func Init(env string) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = MapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.NewLogger(), nil
}

// InitDatabase opens the configured database and, when autoMigrate is set,
// applies pending migrations.
func InitDatabase(ctx context.Context, cfg *config.Config, autoMigrate bool, log logger.Interface) error {
	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	m, err := migration.NewMigrator(database.Get(), cfg.Database.Driver, log)
	if err != nil {
		return err
	}

	if autoMigrate {
		log.Infow("running auto-migration")
		return m.Up(ctx)
	}

	version, err := m.Version(ctx)
	if err != nil {
		log.Warnw("failed to check migration status", "error", err)
		return nil
	}
	log.Infow("current migration version", "version", version)
	return nil
}

func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
