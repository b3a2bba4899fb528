// Package entities contains core domain data structures.
package entities

import (
	"math"
	"time"
)

// Activity names the resolver and importer care about.
const (
	ActivityNameRewindComplete = "rewind__complete"
	ActivityNameRewindStarted  = "rewind__started"
	ActivityNameBackupComplete = "rewind__backup_complete_full"
)

// Activity represents a single entry in a site's activity log.
type Activity struct {
	ID           string `json:"id"`
	SiteID       string `json:"site_id"`
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	Summary      string `json:"summary"`
	Text         string `json:"text,omitempty"`
	Actor        string `json:"actor,omitempty"`
	Status       string `json:"status,omitempty"`
	RewindID     string `json:"rewind_id,omitempty"`
	IsRewindable bool   `json:"is_rewindable"`

	PublishedAt time.Time `json:"published_at"`

	// TargetTimestamp is the point in time a rewind restored the site to.
	// Only rewind-complete activities carry it.
	TargetTimestamp *time.Time `json:"target_ts,omitempty"`

	// Discarded is computed, never stored.
	Discarded bool `json:"discarded"`

	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsRewindComplete reports whether the activity records a finished restore.
func (a *Activity) IsRewindComplete() bool {
	return a.Name == ActivityNameRewindComplete
}

// EmbeddingText returns the text indexed for semantic search.
func (a *Activity) EmbeddingText() string {
	if a.Text == "" || a.Text == a.Summary {
		return a.Name + ": " + a.Summary
	}
	return a.Name + ": " + a.Summary + "\n" + a.Text
}

// Timestamps are stored as Unix nanoseconds, which bounds the range of
// times the store can hold.
var (
	MinTimestamp = time.Unix(0, math.MinInt64).UTC()
	MaxTimestamp = time.Unix(0, math.MaxInt64).UTC()
)

// InStorableRange reports whether t survives a round trip through the store.
func InStorableRange(t time.Time) bool {
	return !t.Before(MinTimestamp) && !t.After(MaxTimestamp)
}
