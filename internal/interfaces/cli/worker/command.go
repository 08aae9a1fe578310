package worker

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/civiclens/civiclens/internal/infrastructure/database"
	"github.com/civiclens/civiclens/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/civiclens/civiclens/internal/interfaces/http"
	"github.com/civiclens/civiclens/internal/shared/version"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the triage workers",
		Long:  `Consume the triage queue and run the stale triage sweep without serving HTTP. Requires Redis so jobs are shared with the API process.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	env = bootstrap.Env(env)

	cfg, log, err := bootstrap.Init(env)
	if err != nil {
		return err
	}
	if !cfg.Redis.Enabled {
		log.Warnw("redis disabled, this worker only sees jobs queued in its own process")
	}

	log.Infow("starting triage worker", "environment", env, "version", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.InitDatabase(ctx, cfg, false, log); err != nil {
		return err
	}
	defer database.Close()

	container, err := httpRouter.NewContainer(database.Get(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Shutdown()

	if err := container.StartBackground(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Infow("triage worker stopping")
	return nil
}
