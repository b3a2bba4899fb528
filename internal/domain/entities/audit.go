package entities

import "time"

// Audit actions.
const (
	AuditActionImport     = "import"
	AuditActionDelete     = "delete"
	AuditActionSiteCreate = "site.create"
	AuditActionSiteDelete = "site.delete"
)

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID         int64          `json:"id"`
	SiteID     string         `json:"site_id"`
	Action     string         `json:"action"`
	ActivityID string         `json:"activity_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
