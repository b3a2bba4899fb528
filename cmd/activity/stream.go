package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/application/handlers"
	"github.com/ersonp/activity-core/internal/domain/entities"
)

type streamFlags struct {
	viewFrom      string
	since         string
	until         string
	limit         int
	hideDiscarded bool
}

func newStreamCmd() *cobra.Command {
	var flags streamFlags

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Show the activity log with discarded events marked",
		Long: `Shows a site's activity log, newest first. Events that happened inside a
span of history a later restore rolled back are marked as discarded.
--view-from replays the log as it looked at an earlier moment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(cmd, flags)
		},
	}

	addWindowFlags(cmd, &flags.viewFrom, &flags.since, &flags.until)
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultStreamLimit, "Maximum number of activities to display (0 for all)")
	cmd.Flags().BoolVar(&flags.hideDiscarded, "hide-discarded", false, "Leave discarded activities out")

	return cmd
}

// addWindowFlags registers the shared observation point and window flags.
func addWindowFlags(cmd *cobra.Command, viewFrom, since, until *string) {
	cmd.Flags().StringVar(viewFrom, "view-from", "", "Observation point (default now)")
	cmd.Flags().StringVar(since, "since", "", "Only activities at or after this time")
	cmd.Flags().StringVar(until, "until", "", "Only activities at or before this time")
}

func runStream(cmd *cobra.Command, flags streamFlags) error {
	now := time.Now()
	opts := handlers.StreamOptions{Limit: flags.limit, HideDiscarded: flags.hideDiscarded}

	var err error
	if opts.ViewFrom, err = parseTimeFlag(flags.viewFrom, now); err != nil {
		return fmt.Errorf("--view-from: %w", err)
	}
	if opts.Since, err = parseTimeFlag(flags.since, now); err != nil {
		return fmt.Errorf("--since: %w", err)
	}
	if opts.Until, err = parseTimeFlag(flags.until, now); err != nil {
		return fmt.Errorf("--until: %w", err)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.StreamHandler.Handle(ctx, d.SiteID, opts)
		if err != nil {
			return err
		}

		printStream(cmd.OutOrStdout(), result, now)
		return nil
	})
}

func printStream(w io.Writer, result *handlers.StreamResult, now time.Time) {
	if result.Warning != "" {
		fmt.Fprintf(w, "Warning: discard status unavailable: %s\n\n", result.Warning)
	}

	if len(result.Activities) == 0 {
		fmt.Fprintln(w, "No activities found.")
		return
	}

	fmt.Fprintf(w, "Showing %d of %d activities (%d discarded), viewed from %s:\n\n",
		len(result.Activities), result.Total, result.Discarded, formatStamp(result.ViewFrom))

	fmt.Fprintf(w, "%-19s %-16s %-28s %-9s %s\n", "PUBLISHED", "WHEN", "NAME", "STATE", "SUMMARY")
	for i := range result.Activities {
		a := &result.Activities[i]
		fmt.Fprintf(w, "%-19s %-16s %-28s %-9s %s\n",
			formatStamp(a.PublishedAt),
			relativeTime(a.PublishedAt, now),
			truncate(a.Name, 28),
			activityState(a, result.Annotated),
			oneLine(a.Summary),
		)
	}
}

func activityState(a *entities.Activity, annotated bool) string {
	switch {
	case !annotated:
		return "?"
	case a.Discarded:
		return "discarded"
	default:
		return "kept"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
