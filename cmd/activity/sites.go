package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/application/handlers"
)

func newSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Manage sites",
		RunE:  runSitesList,
	}

	cmd.AddCommand(
		newSitesListCmd(),
		newSitesCreateCmd(),
		newSitesDeleteCmd(),
	)

	return cmd
}

func newSitesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sites",
		RunE:  runSitesList,
	}
}

func runSitesList(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	sites, err := newSitesHandler(cwd).List()
	if err != nil {
		return err
	}

	printSites(cmd.OutOrStdout(), sites)
	return nil
}

func printSites(w io.Writer, sites []handlers.SiteInfo) {
	if len(sites) == 0 {
		fmt.Fprintln(w, "No sites configured.")
		fmt.Fprintln(w, "Use 'activity sites create NAME' to create a site.")
		return
	}

	fmt.Fprintf(w, "%-20s %-28s %-30s %s\n", "NAME", "COLLECTION", "URL", "DESCRIPTION")
	fmt.Fprintf(w, "%-20s %-28s %-30s %s\n", "----", "----------", "---", "-----------")

	for _, site := range sites {
		fmt.Fprintf(w, "%-20s %-28s %-30s %s\n", site.Name, site.Collection, site.URL, site.Description)
	}
}

func newSitesCreateCmd() *cobra.Command {
	var opts handlers.CreateSiteOptions

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new site",
		Long:  "Registers a site, initializing .activity/ on first use, and creates its vector collection.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSitesCreate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "Site URL")
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "Site description")

	return cmd
}

func runSitesCreate(cmd *cobra.Command, name string, opts handlers.CreateSiteOptions) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	result, err := newSitesHandler(cwd).Create(cmd.Context(), name, opts)
	if err != nil {
		return err
	}

	if result.Initialized {
		fmt.Printf("Initialized activity in %s\n", result.ConfigPath)
	}
	fmt.Printf("Created site %q with collection %q\n", result.Site.Name, result.Site.Collection)

	return nil
}

func newSitesDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSitesDelete(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if the site has stored activities")

	return cmd
}

func runSitesDelete(cmd *cobra.Command, name string, force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	result, err := newSitesHandler(cwd).Delete(cmd.Context(), name, force)
	if err != nil {
		return err
	}

	if result.Warning != "" {
		fmt.Printf("Warning: %s\n", result.Warning)
	}
	fmt.Printf("Deleted site %q (%d activities removed)\n", result.Site.Name, result.Deleted)

	return nil
}
