// Package main provides the entry point for the activity CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version        = "0.1.0-dev"
	globalSite     string
	globalLogLevel string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "activity",
		Short:         "A site activity log that knows which events a restore rolled back",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalSite, "site", "s", "", "Site to operate on (required by most commands)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	rootCmd.AddCommand(
		newSitesCmd(),
		newImportCmd(),
		newStreamCmd(),
		newRewindsCmd(),
		newSearchCmd(),
		newDigestCmd(),
		newExportCmd(),
		newWatchCmd(),
		newDeleteCmd(),
		newAuditCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
