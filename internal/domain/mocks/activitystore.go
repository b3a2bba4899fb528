package mocks

import (
	"context"
	"sort"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
)

// ActivityStore is an in-memory mock of ports.ActivityStore.
type ActivityStore struct {
	Activities map[string][]entities.Activity // keyed by site
	Audit      []entities.AuditEntry
	Err        error

	SaveCallCount int
	LastSaved     []entities.Activity
	LastFilter    ports.ActivityFilter
}

// NewActivityStore creates an empty mock store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{Activities: make(map[string][]entities.Activity)}
}

// EnsureSchema returns the configured error.
func (m *ActivityStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close does nothing.
func (m *ActivityStore) Close() error {
	return nil
}

// SaveActivities upserts by ID.
func (m *ActivityStore) SaveActivities(_ context.Context, activities []entities.Activity) error {
	m.SaveCallCount++
	m.LastSaved = activities
	if m.Err != nil {
		return m.Err
	}
	if m.Activities == nil {
		m.Activities = make(map[string][]entities.Activity)
	}
	for _, a := range activities {
		site := m.Activities[a.SiteID]
		replaced := false
		for i := range site {
			if site[i].ID == a.ID {
				site[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			site = append(site, a)
		}
		m.Activities[a.SiteID] = site
	}
	return nil
}

// FindActivity finds by ID.
func (m *ActivityStore) FindActivity(_ context.Context, siteID, id string) (*entities.Activity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.Activities[siteID] {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, entities.ErrActivityNotFound
}

// ExistingIDs reports stored IDs.
func (m *ActivityStore) ExistingIDs(_ context.Context, siteID string, ids []string) (map[string]bool, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	exists := make(map[string]bool, len(ids))
	for _, id := range ids {
		for _, a := range m.Activities[siteID] {
			if a.ID == id {
				exists[id] = true
				break
			}
		}
	}
	return exists, nil
}

// ListActivities applies the filter and orders newest first.
func (m *ActivityStore) ListActivities(_ context.Context, siteID string, filter ports.ActivityFilter) ([]entities.Activity, error) {
	m.LastFilter = filter
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.Activity
	for _, a := range m.Activities[siteID] {
		if !filter.Since.IsZero() && a.PublishedAt.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && a.PublishedAt.After(filter.Until) {
			continue
		}
		if filter.Name != "" && a.Name != filter.Name {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ListRewindCompletes lists rewind-complete activities.
func (m *ActivityStore) ListRewindCompletes(ctx context.Context, siteID string) ([]entities.Activity, error) {
	return m.ListActivities(ctx, siteID, ports.ActivityFilter{Name: entities.ActivityNameRewindComplete})
}

// CountActivities counts a site's activities.
func (m *ActivityStore) CountActivities(_ context.Context, siteID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Activities[siteID]), nil
}

// DeleteActivity removes by ID.
func (m *ActivityStore) DeleteActivity(_ context.Context, siteID, id string) error {
	if m.Err != nil {
		return m.Err
	}
	site := m.Activities[siteID]
	for i := range site {
		if site[i].ID == id {
			m.Activities[siteID] = append(site[:i], site[i+1:]...)
			return nil
		}
	}
	return entities.ErrActivityNotFound
}

// DeleteSite drops a site's activities.
func (m *ActivityStore) DeleteSite(_ context.Context, siteID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	n := len(m.Activities[siteID])
	delete(m.Activities, siteID)
	return n, nil
}

// LogAction records an audit entry.
func (m *ActivityStore) LogAction(_ context.Context, siteID, action, activityID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:         int64(len(m.Audit) + 1),
		SiteID:     siteID,
		Action:     action,
		ActivityID: activityID,
		Details:    details,
	})
	return nil
}

// FindAuditLog returns recorded entries for a site, newest first.
func (m *ActivityStore) FindAuditLog(_ context.Context, siteID string, limit int) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].SiteID == siteID {
			out = append(out, m.Audit[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
