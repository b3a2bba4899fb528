package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/application/handlers"
	"github.com/ersonp/activity-core/internal/domain/services"
	"github.com/ersonp/activity-core/internal/infrastructure/watcher"
)

type watchFlags struct {
	existing   bool
	onConflict string
	index      bool
}

func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Import activity exports as they land in a directory",
		Long:  "Watches a directory and imports new or changed .json, .jsonl and .csv exports into the site until interrupted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.existing, "existing", false, "Also import exports already in the directory")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "overwrite", "Conflict handling (skip, overwrite)")
	cmd.Flags().BoolVar(&flags.index, "index", false, "Also embed summaries into the search index")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, flags watchFlags) error {
	if !slices.Contains(validConflictStrategies, flags.onConflict) {
		return fmt.Errorf("invalid --on-conflict value %q (valid: skip, overwrite)", flags.onConflict)
	}

	ctx := cmd.Context()

	return withImportHandler(ctx, flags.index, func(handler *handlers.ImportHandler, d *Deps) error {
		w, err := watcher.New(dir, watcher.Options{
			IncludeExisting: flags.existing,
			Logger:          d.Logger,
		})
		if err != nil {
			return err
		}
		defer w.Close()

		opts := handlers.ImportOptions{
			Format:     "auto",
			OnConflict: services.ConflictStrategy(flags.onConflict),
			Index:      flags.index,
		}

		fmt.Printf("Watching %s for %s (Ctrl+C to stop)\n", w.Dir(), d.SiteName)

		return w.Run(ctx, func(ctx context.Context, path string) error {
			result, err := handler.Handle(ctx, d.SiteID, path, opts)
			if err != nil {
				return fmt.Errorf("importing %s: %w", filepath.Base(path), err)
			}
			d.Logger.Info("imported export", "file", filepath.Base(path), "imported", result.Imported, "skipped", result.Skipped, "errors", len(result.Errors))
			fmt.Printf("\n%s:", filepath.Base(path))
			printImportResult(result, false)
			return nil
		})
	})
}
