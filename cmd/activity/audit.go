package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
)

func newAuditCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent changes to the site's store",
		Long:  "Lists imports, deletions and site changes recorded in the audit log, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(store ports.ActivityStore, d *Deps) error {
				entries, err := store.FindAuditLog(ctx, d.SiteID, limit)
				if err != nil {
					return fmt.Errorf("reading audit log: %w", err)
				}
				printAudit(cmd.OutOrStdout(), entries, time.Now())
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultAuditLimit, "Maximum number of entries (0 for all)")

	return cmd
}

func printAudit(w io.Writer, entries []entities.AuditEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries.")
		return
	}

	fmt.Fprintf(w, "%-19s %-14s %-12s %-20s %s\n", "WHEN", "AGO", "ACTION", "ACTIVITY", "DETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%-19s %-14s %-12s %-20s %s\n",
			formatStamp(e.CreatedAt),
			relativeTime(e.CreatedAt, now),
			e.Action,
			truncate(e.ActivityID, 20),
			formatDetails(e.Details),
		)
	}
}

// formatDetails renders details as sorted key=value pairs.
func formatDetails(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}
