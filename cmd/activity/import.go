package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/application/handlers"
	"github.com/ersonp/activity-core/internal/domain/services"
)

type importFlags struct {
	format     string
	dryRun     bool
	onConflict string
	index      bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an activity log export",
		Long:  "Imports activities from a JSON, JSONL or CSV export into the site's store.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, jsonl, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "skip", "Conflict handling (skip, overwrite)")
	cmd.Flags().BoolVar(&flags.index, "index", false, "Also embed summaries into the search index")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	if !slices.Contains(validConflictStrategies, flags.onConflict) {
		return fmt.Errorf("invalid --on-conflict value %q (valid: skip, overwrite)", flags.onConflict)
	}

	ctx := cmd.Context()

	return withImportHandler(ctx, flags.index && !flags.dryRun, func(handler *handlers.ImportHandler, d *Deps) error {
		opts := handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			OnConflict: services.ConflictStrategy(flags.onConflict),
			Index:      flags.index && !flags.dryRun,
		}

		fmt.Printf("Importing %s into %s...\n", filePath, d.SiteName)

		result, err := handler.Handle(ctx, d.SiteID, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		d.Logger.Info("import finished", "file", filePath, "imported", result.Imported, "skipped", result.Skipped, "errors", len(result.Errors))
		printImportResult(result, flags.dryRun)
		return nil
	})
}

func printImportResult(result *handlers.ImportResult, dryRun bool) {
	// Display errors
	if len(result.Errors) > 0 {
		fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
	}

	// Display summary
	fmt.Println()
	if dryRun {
		fmt.Printf("Dry run: %d activities would be imported", result.Imported)
	} else {
		fmt.Printf("Imported: %d activities", result.Imported)
	}

	if result.Skipped > 0 {
		fmt.Printf(", %d skipped (already exist)", result.Skipped)
	}

	if result.Indexed > 0 {
		fmt.Printf(", %d indexed", result.Indexed)
	}

	if len(result.Errors) > 0 {
		fmt.Printf(", %d errors", len(result.Errors))
	}

	fmt.Println()
}
