package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/application/handlers"
)

type searchFlags struct {
	name     string
	limit    int
	viewFrom string
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search activities by meaning",
		Long:  "Finds activities whose summaries are semantically close to the query. Requires an import with --index.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Only activities with this name (e.g. plugin__updated)")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultSearchLimit, "Maximum number of results")
	cmd.Flags().StringVar(&flags.viewFrom, "view-from", "", "Observation point for discard status (default now)")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, flags searchFlags) error {
	now := time.Now()
	viewFrom, err := parseTimeFlag(flags.viewFrom, now)
	if err != nil {
		return fmt.Errorf("--view-from: %w", err)
	}

	ctx := cmd.Context()

	return withQueryHandler(ctx, func(handler *handlers.QueryHandler, d *Deps) error {
		result, err := handler.Handle(ctx, d.SiteID, query, handlers.QueryOptions{
			Name:     flags.name,
			Limit:    flags.limit,
			ViewFrom: viewFrom,
		})
		if err != nil {
			return err
		}

		if result.Warning != "" {
			fmt.Printf("Warning: discard status unavailable: %s\n\n", result.Warning)
		}

		if len(result.Activities) == 0 {
			fmt.Println("No matching activities found.")
			return nil
		}

		fmt.Printf("Found %d activities:\n\n", len(result.Activities))
		for i := range result.Activities {
			a := &result.Activities[i]
			fmt.Printf("%d. [%s] %s (%s)\n", i+1, a.Name, oneLine(a.Summary), relativeTime(a.PublishedAt, now))
			fmt.Printf("   ID: %s  State: %s\n", a.ID, activityState(a, result.Annotated))
			if a.Text != "" && a.Text != a.Summary {
				fmt.Printf("   %s\n", truncate(oneLine(a.Text), 100))
			}
			fmt.Println()
		}

		return nil
	})
}
