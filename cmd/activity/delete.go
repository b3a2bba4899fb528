package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
)

type deleteFlags struct {
	force bool
}

type deleter struct {
	store  ports.ActivityStore
	siteID string
	force  bool
	in     io.Reader
}

func newDeleteCmd() *cobra.Command {
	var flags deleteFlags

	cmd := &cobra.Command{
		Use:   "delete <activity-id>...",
		Short: "Delete activities",
		Long: "Deletes activities from the site's store. Deleting a restore changes which " +
			"activities are discarded, so each deletion is recorded in the audit log.",
		Args: cobra.RangeArgs(1, MaxDeleteBatchSize),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runDelete(cmd *cobra.Command, ids []string, flags deleteFlags) error {
	ctx := cmd.Context()

	return withStore(ctx, func(store ports.ActivityStore, d *Deps) error {
		del := &deleter{
			store:  store,
			siteID: d.SiteID,
			force:  flags.force,
			in:     os.Stdin,
		}
		return del.deleteByIDs(ctx, ids)
	})
}

func (d *deleter) deleteByIDs(ctx context.Context, ids []string) error {
	found := make([]*entities.Activity, 0, len(ids))
	for _, id := range ids {
		a, err := d.store.FindActivity(ctx, d.siteID, id) //loopcall:ok
		if errors.Is(err, entities.ErrActivityNotFound) {
			fmt.Printf("Activity not found: %s\n", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("finding activity %s: %w", id, err)
		}
		found = append(found, a)
	}

	if len(found) == 0 {
		return nil
	}

	if !d.force && !confirmAction(d.in, d.prompt(found)) {
		fmt.Println("Cancelled.")
		return nil
	}

	for _, a := range found {
		if err := d.store.DeleteActivity(ctx, d.siteID, a.ID); err != nil {
			return fmt.Errorf("deleting activity: %w", err)
		}
		details := map[string]any{"name": a.Name, "published": a.PublishedAt.UTC().Unix()}
		if err := d.store.LogAction(ctx, d.siteID, entities.AuditActionDelete, a.ID, details); err != nil {
			return fmt.Errorf("logging delete: %w", err)
		}
		fmt.Printf("Deleted activity: %s (%s)\n", a.ID, a.Name)
	}

	return nil
}

func (d *deleter) prompt(found []*entities.Activity) string {
	rewinds := 0
	for _, a := range found {
		if a.IsRewindComplete() {
			rewinds++
		}
	}
	prompt := fmt.Sprintf("Delete %d activities?", len(found))
	if rewinds > 0 {
		prompt = fmt.Sprintf("Delete %d activities (%d restores, discard status will change)?", len(found), rewinds)
	}
	return prompt
}

func confirmAction(in io.Reader, prompt string) bool {
	reader := bufio.NewReader(in)
	fmt.Printf("%s [y/N]: ", prompt)
	response, _ := reader.ReadString('\n') // Error ignored: EOF/error treated as "no"
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
