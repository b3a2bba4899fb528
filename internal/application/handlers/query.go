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

// QueryHandler handles semantic activity search.
type QueryHandler struct {
	queryService *services.QueryService
	store        ports.ActivityStore
	resolver     *services.DiscardResolver
	logger       ports.Logger
}

// NewQueryHandler creates a new query handler. A nil logger discards output.
func NewQueryHandler(queryService *services.QueryService, store ports.ActivityStore, resolver *services.DiscardResolver, logger ports.Logger) *QueryHandler {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &QueryHandler{
		queryService: queryService,
		store:        store,
		resolver:     resolver,
		logger:       logger,
	}
}

// QueryOptions narrows a search.
type QueryOptions struct {
	Name     string    // Restrict to one activity name
	Limit    int       // Zero means services.DefaultSearchLimit
	ViewFrom time.Time // Observation point for discard status; zero means now
}

// QueryResult contains the result of a query.
type QueryResult struct {
	Query      string
	Activities []entities.Activity
	Annotated  bool
	Warning    string
}

// Handle searches for activities matching the query and marks discarded hits.
func (h *QueryHandler) Handle(ctx context.Context, siteID, query string, opts QueryOptions) (*QueryResult, error) {
	if siteID == "" {
		return nil, entities.ErrSiteRequired
	}

	var (
		hits []entities.Activity
		err  error
	)
	if opts.Name != "" {
		hits, err = h.queryService.SearchByName(ctx, query, opts.Name, opts.Limit)
	} else {
		hits, err = h.queryService.Search(ctx, query, opts.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("searching activities: %w", err)
	}

	result := &QueryResult{Query: query, Activities: hits, Annotated: true}
	if len(hits) == 0 {
		return result, nil
	}

	all, err := h.store.ListActivities(ctx, siteID, ports.ActivityFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	resolved, err := h.resolver.RewriteStream(all, opts.ViewFrom)
	switch {
	case errors.Is(err, entities.ErrMissingTargetTimestamp):
		h.logger.Warn("search results without discard status", "site", siteID, "err", err)
		result.Annotated = false
		result.Warning = err.Error()
		result.Activities = unannotated(hits)
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("resolving discarded activities: %w", err)
	}

	discarded := make(map[string]bool, len(resolved))
	for i := range resolved {
		discarded[resolved[i].ID] = resolved[i].Discarded
	}

	// Hits missing from the store are indexed leftovers; keep them unmarked.
	annotated := make([]entities.Activity, len(hits))
	for i := range hits {
		annotated[i] = hits[i]
		annotated[i].Discarded = discarded[hits[i].ID]
	}
	result.Activities = annotated

	return result, nil
}
