// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"time"

	"github.com/ersonp/activity-core/internal/domain/entities"
)

// ActivityFilter narrows a stored activity listing. Zero values mean unbounded.
type ActivityFilter struct {
	Since  time.Time
	Until  time.Time
	Name   string
	Limit  int
	Offset int
}

// ActivityStore persists a site's activity log and the audit trail.
type ActivityStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// SaveActivities upserts activities by ID.
	SaveActivities(ctx context.Context, activities []entities.Activity) error

	// FindActivity finds one activity. Returns entities.ErrActivityNotFound when missing.
	FindActivity(ctx context.Context, siteID, id string) (*entities.Activity, error)

	// ExistingIDs reports which of ids are already stored for the site.
	ExistingIDs(ctx context.Context, siteID string, ids []string) (map[string]bool, error)

	// ListActivities lists a site's activities ordered by published time, newest first.
	ListActivities(ctx context.Context, siteID string, filter ActivityFilter) ([]entities.Activity, error)

	// ListRewindCompletes lists a site's rewind-complete activities, newest first.
	ListRewindCompletes(ctx context.Context, siteID string) ([]entities.Activity, error)

	// CountActivities returns the number of stored activities for a site.
	CountActivities(ctx context.Context, siteID string) (int, error)

	// DeleteActivity removes a single activity.
	DeleteActivity(ctx context.Context, siteID, id string) error

	// DeleteSite removes every activity stored for a site.
	DeleteSite(ctx context.Context, siteID string) (int, error)

	// LogAction appends an entry to the audit log.
	LogAction(ctx context.Context, siteID, action, activityID string, details map[string]any) error

	// FindAuditLog lists a site's audit entries, newest first.
	FindAuditLog(ctx context.Context, siteID string, limit int) ([]entities.AuditEntry, error)
}
