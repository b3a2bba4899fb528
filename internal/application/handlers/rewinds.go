package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
	"github.com/ersonp/activity-core/internal/domain/services"
)

// RewindView describes one restore as seen from an observation point.
type RewindView struct {
	Pair entities.RewindPair
	// Superseded is set when a later restore rolled this one back.
	Superseded bool
	// Pending is set when the restore happened after the observation point.
	Pending bool
}

// RewindsResult lists a site's restores, latest first.
type RewindsResult struct {
	SiteID   string
	ViewFrom time.Time
	Rewinds  []RewindView
}

// RewindsHandler lists the restores recorded for a site.
type RewindsHandler struct {
	store    ports.ActivityStore
	resolver *services.DiscardResolver
}

// NewRewindsHandler creates a new rewinds handler.
func NewRewindsHandler(store ports.ActivityStore, resolver *services.DiscardResolver) *RewindsHandler {
	return &RewindsHandler{
		store:    store,
		resolver: resolver,
	}
}

// Handle lists rewind pairs with their status. A zero viewFrom means now.
func (h *RewindsHandler) Handle(ctx context.Context, siteID string, viewFrom time.Time) (*RewindsResult, error) {
	if siteID == "" {
		return nil, entities.ErrSiteRequired
	}

	rewinds, err := h.store.ListRewindCompletes(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("listing rewinds: %w", err)
	}

	pred, err := h.resolver.Predicate(rewinds, viewFrom)
	if err != nil {
		return nil, fmt.Errorf("resolving rewinds: %w", err)
	}

	pairs, err := h.resolver.ExtractRewindPairs(rewinds)
	if err != nil {
		return nil, fmt.Errorf("extracting rewinds: %w", err)
	}

	result := &RewindsResult{
		SiteID:   siteID,
		ViewFrom: pred.ViewFrom(),
		Rewinds:  make([]RewindView, 0, len(pairs)),
	}
	for _, pair := range pairs {
		pending := pair.RestorePoint.After(pred.ViewFrom())
		result.Rewinds = append(result.Rewinds, RewindView{
			Pair:       pair,
			Pending:    pending,
			Superseded: !pending && pred.IsDiscarded(pair.RestorePoint),
		})
	}

	return result, nil
}
