package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/application/handlers"
	"github.com/ersonp/activity-core/internal/domain/services"
)

type digestFlags struct {
	viewFrom string
	since    string
	until    string
}

func newDigestCmd() *cobra.Command {
	var flags digestFlags

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Write a short summary of what happened",
		Long:  "Asks the LLM to summarize the activities in the window that were not rolled back by a restore.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, flags)
		},
	}

	addWindowFlags(cmd, &flags.viewFrom, &flags.since, &flags.until)

	return cmd
}

func runDigest(cmd *cobra.Command, flags digestFlags) error {
	now := time.Now()
	var (
		window services.DigestWindow
		err    error
	)
	if window.ViewFrom, err = parseTimeFlag(flags.viewFrom, now); err != nil {
		return fmt.Errorf("--view-from: %w", err)
	}
	if window.Since, err = parseTimeFlag(flags.since, now); err != nil {
		return fmt.Errorf("--since: %w", err)
	}
	if window.Until, err = parseTimeFlag(flags.until, now); err != nil {
		return fmt.Errorf("--until: %w", err)
	}

	ctx := cmd.Context()

	return withDigestHandler(ctx, func(handler *handlers.DigestHandler, d *Deps) error {
		digest, err := handler.Handle(ctx, d.SiteID, window)
		if err != nil {
			return err
		}

		fmt.Println(digest.Text)
		fmt.Printf("\n(%d activities summarized, %d discarded by restores)\n", digest.Surviving, digest.Discarded)
		return nil
	})
}
