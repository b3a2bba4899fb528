// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
	"github.com/ersonp/activity-core/internal/domain/services"
)

// StreamHandler loads a site's activity log and annotates discard status.
type StreamHandler struct {
	store    ports.ActivityStore
	resolver *services.DiscardResolver
	logger   ports.Logger
}

// NewStreamHandler creates a new stream handler. A nil logger discards output.
func NewStreamHandler(store ports.ActivityStore, resolver *services.DiscardResolver, logger ports.Logger) *StreamHandler {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &StreamHandler{
		store:    store,
		resolver: resolver,
		logger:   logger,
	}
}

// StreamOptions narrows the returned stream. Zero values are unbounded.
type StreamOptions struct {
	ViewFrom      time.Time // Observation point; zero means now
	Since         time.Time
	Until         time.Time
	Limit         int
	HideDiscarded bool
}

// StreamResult contains an annotated activity stream, newest first.
type StreamResult struct {
	SiteID     string
	ViewFrom   time.Time
	Activities []entities.Activity
	Annotated  bool   // False when discard status could not be computed
	Warning    string // Why annotation was skipped
	Total      int    // Activities in the window before hiding and limiting
	Discarded  int    // Discarded activities in the window
}

// Handle resolves the site's whole history, then applies the window.
// Discard status depends on restores recorded after the window, so the
// window cannot be pushed down to the store.
func (h *StreamHandler) Handle(ctx context.Context, siteID string, opts StreamOptions) (*StreamResult, error) {
	if siteID == "" {
		return nil, entities.ErrSiteRequired
	}

	all, err := h.store.ListActivities(ctx, siteID, ports.ActivityFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	viewFrom := h.resolver.ObservationPoint(opts.ViewFrom)
	result := &StreamResult{SiteID: siteID, ViewFrom: viewFrom, Annotated: true}

	resolved, err := h.resolver.RewriteStream(all, viewFrom)
	switch {
	case errors.Is(err, entities.ErrMissingTargetTimestamp):
		h.logger.Warn("showing activity without discard status", "site", siteID, "err", err)
		result.Annotated = false
		result.Warning = err.Error()
		resolved = unannotated(all)
	case err != nil:
		return nil, fmt.Errorf("resolving discarded activities: %w", err)
	}

	result.Activities = make([]entities.Activity, 0, len(resolved))
	for i := range resolved {
		a := &resolved[i]
		if !opts.Since.IsZero() && a.PublishedAt.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && a.PublishedAt.After(opts.Until) {
			continue
		}
		result.Total++
		if a.Discarded {
			result.Discarded++
			if opts.HideDiscarded {
				continue
			}
		}
		if opts.Limit > 0 && len(result.Activities) >= opts.Limit {
			continue
		}
		result.Activities = append(result.Activities, *a)
	}

	h.logger.Debug("stream resolved", "site", siteID, "total", result.Total, "discarded", result.Discarded)

	return result, nil
}

// unannotated copies activities with Discarded cleared.
func unannotated(activities []entities.Activity) []entities.Activity {
	out := make([]entities.Activity, len(activities))
	copy(out, activities)
	for i := range out {
		out[i].Discarded = false
	}
	return out
}
