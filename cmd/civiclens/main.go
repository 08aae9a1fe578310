package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/civiclens/civiclens/internal/interfaces/cli/migrate"
	"github.com/civiclens/civiclens/internal/interfaces/cli/server"
	"github.com/civiclens/civiclens/internal/interfaces/cli/token"
	"github.com/civiclens/civiclens/internal/interfaces/cli/worker"
	"github.com/civiclens/civiclens/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "civiclens",
		Short:   "CivicLens - civic issue reporting with an auditable trust pipeline",
		Long:    `CivicLens accepts citizen reports, verifies photo provenance, merges duplicates, triages with a vision model and records every status change in an append-only ledger.`,
		Version: version.String(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
		token.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
