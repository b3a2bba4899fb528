package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/application/handlers"
)

func newRewindsCmd() *cobra.Command {
	var viewFrom string

	cmd := &cobra.Command{
		Use:   "rewinds",
		Short: "List the site's restores",
		Long:  "Lists completed restores with the span each one rolled back, and whether a later restore superseded it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewinds(cmd, viewFrom)
		},
	}

	cmd.Flags().StringVar(&viewFrom, "view-from", "", "Observation point (default now)")

	return cmd
}

func runRewinds(cmd *cobra.Command, viewFromFlag string) error {
	now := time.Now()
	viewFrom, err := parseTimeFlag(viewFromFlag, now)
	if err != nil {
		return fmt.Errorf("--view-from: %w", err)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.RewindsHandler.Handle(ctx, d.SiteID, viewFrom)
		if err != nil {
			return err
		}

		printRewinds(cmd.OutOrStdout(), result)
		return nil
	})
}

func printRewinds(w io.Writer, result *handlers.RewindsResult) {
	if len(result.Rewinds) == 0 {
		fmt.Fprintln(w, "No restores recorded.")
		return
	}

	fmt.Fprintf(w, "Restores viewed from %s:\n\n", formatStamp(result.ViewFrom))
	fmt.Fprintf(w, "%-19s %-19s %-16s %-10s %s\n", "RESTORED AT", "RESTORED TO", "ROLLED BACK", "STATE", "ACTIVITY")
	for _, v := range result.Rewinds {
		fmt.Fprintf(w, "%-19s %-19s %-16s %-10s %s\n",
			formatStamp(v.Pair.RestorePoint),
			formatStamp(v.Pair.BackupPoint),
			rolledBack(v.Pair.RestorePoint.Sub(v.Pair.BackupPoint)),
			rewindState(v),
			v.Pair.ActivityID,
		)
	}
}

func rewindState(v handlers.RewindView) string {
	switch {
	case v.Pending:
		return "pending"
	case v.Superseded:
		return "superseded"
	default:
		return "effective"
	}
}

// rolledBack renders the length of a rolled-back span.
func rolledBack(d time.Duration) string {
	if d < 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
