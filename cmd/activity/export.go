package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/activity-core/internal/application/handlers"
	"github.com/ersonp/activity-core/internal/domain/entities"
)

type exportFlags struct {
	format        string
	output        string
	viewFrom      string
	since         string
	until         string
	hideDiscarded bool
}

type exporter struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the annotated activity stream",
		Long:  "Exports the site's activities with their discard status to JSON, CSV, or markdown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&flags.hideDiscarded, "hide-discarded", false, "Leave out activities rolled back by a restore")
	addWindowFlags(cmd, &flags.viewFrom, &flags.since, &flags.until)

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !slices.Contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	now := time.Now()
	var (
		opts handlers.StreamOptions
		err  error
	)
	if opts.ViewFrom, err = parseTimeFlag(flags.viewFrom, now); err != nil {
		return fmt.Errorf("--view-from: %w", err)
	}
	if opts.Since, err = parseTimeFlag(flags.since, now); err != nil {
		return fmt.Errorf("--since: %w", err)
	}
	if opts.Until, err = parseTimeFlag(flags.until, now); err != nil {
		return fmt.Errorf("--until: %w", err)
	}
	opts.HideDiscarded = flags.hideDiscarded

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.StreamHandler.Handle(ctx, d.SiteID, opts)
		if err != nil {
			return err
		}

		if len(result.Activities) == 0 {
			return errors.New("no activities found to export")
		}
		if !result.Annotated {
			d.Logger.Warn("exporting without discard status", "reason", result.Warning)
		}

		e := &exporter{format: flags.format, output: flags.output}
		return e.export(result.Activities)
	})
}

func (e *exporter) export(activities []entities.Activity) (err error) {
	var w io.Writer
	var f *os.File

	if e.output != "" {
		f, err = os.OpenFile(e.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	} else {
		w = os.Stdout
	}

	if err := e.formatActivities(w, activities); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if e.output != "" {
		fmt.Printf("Exported %d activities to %s\n", len(activities), e.output)
	}

	return nil
}

func (e *exporter) formatActivities(w io.Writer, activities []entities.Activity) error {
	switch e.format {
	case "json":
		return formatJSON(w, activities)
	case "csv":
		return formatCSV(w, activities)
	case "markdown":
		return formatMarkdown(w, activities)
	default:
		return fmt.Errorf("unknown format: %s", e.format)
	}
}

func formatJSON(w io.Writer, activities []entities.Activity) error {
	type exportActivity struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Summary     string `json:"summary"`
		Text        string `json:"text,omitempty"`
		Actor       string `json:"actor,omitempty"`
		Status      string `json:"status,omitempty"`
		PublishedAt string `json:"published"`
		TargetTS    string `json:"target_ts,omitempty"`
		Discarded   bool   `json:"discarded"`
	}

	out := make([]exportActivity, 0, len(activities))
	for i := range activities {
		a := &activities[i]
		out = append(out, exportActivity{
			ID:          a.ID,
			Name:        a.Name,
			Summary:     a.Summary,
			Text:        a.Text,
			Actor:       a.Actor,
			Status:      a.Status,
			PublishedAt: a.PublishedAt.UTC().Format(time.RFC3339),
			TargetTS:    formatTarget(a.TargetTimestamp),
			Discarded:   a.Discarded,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func formatCSV(w io.Writer, activities []entities.Activity) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "name", "summary", "actor", "status", "published", "target_ts", "discarded"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := range activities {
		a := &activities[i]
		row := []string{
			a.ID,
			a.Name,
			a.Summary,
			a.Actor,
			a.Status,
			a.PublishedAt.UTC().Format(time.RFC3339),
			formatTarget(a.TargetTimestamp),
			strconv.FormatBool(a.Discarded),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMarkdown(w io.Writer, activities []entities.Activity) error {
	discarded := 0
	for i := range activities {
		if activities[i].Discarded {
			discarded++
		}
	}

	if _, err := fmt.Fprintf(w, "# Activity Log\n\nTotal: %d activities (%d discarded)\n\n", len(activities), discarded); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "| Published | Name | Summary | Actor | Discarded |\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "|-----------|------|---------|-------|-----------|\n"); err != nil {
		return err
	}

	for i := range activities {
		a := &activities[i]
		summary := a.Summary
		if len(summary) > 60 {
			summary = summary[:57] + "..."
		}
		mark := ""
		if a.Discarded {
			mark = "yes"
		}
		if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			formatStamp(a.PublishedAt),
			escapeMarkdown(a.Name),
			escapeMarkdown(summary),
			escapeMarkdown(a.Actor),
			mark,
		); err != nil {
			return err
		}
	}

	return nil
}

func formatTarget(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
