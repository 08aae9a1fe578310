package migrate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civiclens/civiclens/internal/infrastructure/database"
	"github.com/civiclens/civiclens/internal/infrastructure/migration"
	"github.com/civiclens/civiclens/internal/interfaces/cli/bootstrap"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

var (
	env   string
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage the embedded database migrations: apply, roll back and inspect status.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending database migrations to bring the database schema up to date.`,
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long:  `Rollback a specified number of database migrations.`,
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display the current migration version and status of the database.`,
		RunE:  runStatus,
	}
}

func initMigrator() (*migration.Migrator, logger.Interface, error) {
	cfg, log, err := bootstrap.Init(bootstrap.Env(env))
	if err != nil {
		return nil, nil, err
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m, err := migration.NewMigrator(database.Get(), cfg.Database.Driver, log)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return m, log, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	m, log, err := initMigrator()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running up migrations", "environment", env)
	return m.Up(context.Background())
}

func runDown(cmd *cobra.Command, args []string) error {
	m, log, err := initMigrator()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running down migrations", "environment", env, "steps", steps)
	return m.Down(context.Background(), steps)
}

func runStatus(cmd *cobra.Command, args []string) error {
	m, _, err := initMigrator()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", env)
	fmt.Fprintf(out, "  Current Version: %d\n\n", version)
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(out, "  %-8s %d  %s\n", state, s.Version, s.Path)
	}
	return nil
}
