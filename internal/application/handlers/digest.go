package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
	"github.com/ersonp/activity-core/internal/domain/services"
)

// DigestHandler writes summaries of a site's surviving activity.
type DigestHandler struct {
	store   ports.ActivityStore
	service *services.DigestService
}

// NewDigestHandler creates a new digest handler.
func NewDigestHandler(store ports.ActivityStore, service *services.DigestService) *DigestHandler {
	return &DigestHandler{
		store:   store,
		service: service,
	}
}

// Handle loads the site's history and summarizes the window.
func (h *DigestHandler) Handle(ctx context.Context, siteID string, window services.DigestWindow) (*services.Digest, error) {
	if siteID == "" {
		return nil, entities.ErrSiteRequired
	}

	all, err := h.store.ListActivities(ctx, siteID, ports.ActivityFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	return h.service.Summarize(ctx, siteID, all, window)
}
