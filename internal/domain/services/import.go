package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
	"github.com/ersonp/activity-core/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle existing activities during import.
type ConflictStrategy string

const (
	// ConflictSkip skips activities that already exist (by ID).
	ConflictSkip ConflictStrategy = "skip"
	// ConflictOverwrite overwrites existing activities with new data.
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle existing activities
	Index      bool             // Also embed and upsert into the vector index
	Source     string           // Recorded in the audit log
}

// ImportError represents an error for a specific activity during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Indexed  int
	Errors   []ImportError
}

// ImportService validates activity exports and stores them for a site.
type ImportService struct {
	store    ports.ActivityStore
	embedder ports.Embedder
	vectorDB ports.VectorDB
	now      func() time.Time
}

// NewImportService creates a new import service.
// embedder and vectorDB may be nil when indexing is never requested.
func NewImportService(store ports.ActivityStore, embedder ports.Embedder, vectorDB ports.VectorDB) *ImportService {
	return &ImportService{
		store:    store,
		embedder: embedder,
		vectorDB: vectorDB,
		now:      time.Now,
	}
}

// Import validates and imports raw activities into the site's store.
func (s *ImportService) Import(ctx context.Context, siteID string, raw []parsers.RawActivity, opts ImportOptions) (*ImportResult, error) {
	if siteID == "" {
		return nil, entities.ErrSiteRequired
	}
	if opts.Index && (s.embedder == nil || s.vectorDB == nil) {
		return nil, fmt.Errorf("indexing requested without an embedder and vector database")
	}

	result := &ImportResult{}

	activities, validationErrors := s.convert(siteID, raw)
	result.Errors = validationErrors

	if len(activities) == 0 {
		return result, nil
	}

	if opts.DryRun {
		result.Imported = len(activities)
		return result, nil
	}

	toSave, skipped, err := s.applyConflictStrategy(ctx, siteID, activities, opts.OnConflict)
	if err != nil {
		return nil, err
	}
	result.Skipped = skipped

	if len(toSave) > 0 {
		if err := s.store.SaveActivities(ctx, toSave); err != nil {
			return nil, fmt.Errorf("saving activities: %w", err)
		}
		result.Imported = len(toSave)

		if opts.Index {
			if err := s.index(ctx, toSave); err != nil {
				return nil, fmt.Errorf("indexing activities: %w", err)
			}
			result.Indexed = len(toSave)
		}
	}

	details := map[string]any{
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"errors":   len(result.Errors),
		"indexed":  result.Indexed,
	}
	if opts.Source != "" {
		details["source"] = opts.Source
	}
	if err := s.store.LogAction(ctx, siteID, entities.AuditActionImport, "", details); err != nil {
		return nil, fmt.Errorf("logging import: %w", err)
	}

	return result, nil
}

// convert validates raw activities and converts the valid ones to entities.
func (s *ImportService) convert(siteID string, raw []parsers.RawActivity) ([]entities.Activity, []ImportError) {
	activities := make([]entities.Activity, 0, len(raw))
	var errs []ImportError
	now := s.now()

	for i := range raw {
		lineNum := raw[i].LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		activity, importErr := toActivity(&raw[i], lineNum)
		if importErr != nil {
			errs = append(errs, *importErr)
			continue
		}

		activity.SiteID = siteID
		activity.CreatedAt = now
		activities = append(activities, activity)
	}

	return activities, errs
}

// toActivity validates a single raw activity and converts it.
func toActivity(raw *parsers.RawActivity, lineNum int) (entities.Activity, *ImportError) {
	if raw.Name == "" {
		return entities.Activity{}, &ImportError{Line: lineNum, Field: "name", Message: "missing required field: name"}
	}
	if raw.Published == "" {
		return entities.Activity{}, &ImportError{Line: lineNum, Field: "published", Message: "missing required field: published"}
	}

	published, err := parsers.ParseTimestamp(raw.Published)
	if err != nil {
		return entities.Activity{}, &ImportError{
			Line:    lineNum,
			Field:   "published",
			Value:   raw.Published,
			Message: fmt.Sprintf("invalid published timestamp %q", raw.Published),
		}
	}
	if !entities.InStorableRange(published) {
		return entities.Activity{}, outOfRange(lineNum, "published", raw.Published)
	}

	activity := entities.Activity{
		ID:           raw.ID,
		Name:         raw.Name,
		Type:         raw.Type,
		Summary:      raw.Summary,
		Text:         raw.Content.Text,
		Actor:        raw.Actor.Name,
		Status:       raw.Status,
		RewindID:     raw.RewindID,
		IsRewindable: raw.IsRewindable,
		PublishedAt:  published,
	}
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}

	target := string(raw.Object.TargetTS)
	switch {
	case target != "":
		ts, err := parsers.ParseTimestamp(target)
		if err != nil {
			return entities.Activity{}, &ImportError{
				Line:    lineNum,
				Field:   "target_ts",
				Value:   target,
				Message: fmt.Sprintf("invalid target timestamp %q", target),
			}
		}
		if !entities.InStorableRange(ts) {
			return entities.Activity{}, outOfRange(lineNum, "target_ts", target)
		}
		activity.TargetTimestamp = &ts
	case activity.IsRewindComplete():
		return entities.Activity{}, &ImportError{
			Line:    lineNum,
			Field:   "target_ts",
			Message: "rewind__complete activity is missing object.target_ts",
		}
	}

	return activity, nil
}

func outOfRange(lineNum int, field, value string) *ImportError {
	return &ImportError{
		Line:    lineNum,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("%s %q is outside %d-%d", field, value, entities.MinTimestamp.Year(), entities.MaxTimestamp.Year()),
	}
}

// applyConflictStrategy returns the activities to save and the number skipped.
// Overwrites keep the original CreatedAt of stored rows.
func (s *ImportService) applyConflictStrategy(ctx context.Context, siteID string, activities []entities.Activity, onConflict ConflictStrategy) ([]entities.Activity, int, error) {
	ids := make([]string, len(activities))
	for i := range activities {
		ids[i] = activities[i].ID
	}

	exists, err := s.store.ExistingIDs(ctx, siteID, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("checking existing activities: %w", err)
	}

	if onConflict != ConflictSkip {
		for i := range activities {
			if !exists[activities[i].ID] {
				continue
			}
			existing, err := s.store.FindActivity(ctx, siteID, activities[i].ID)
			if err != nil {
				return nil, 0, fmt.Errorf("looking up activity %s: %w", activities[i].ID, err)
			}
			activities[i].CreatedAt = existing.CreatedAt
		}
		return activities, 0, nil
	}

	toSave := make([]entities.Activity, 0, len(activities))
	seen := make(map[string]bool, len(activities))
	var skipped int
	for i := range activities {
		if exists[activities[i].ID] || seen[activities[i].ID] {
			skipped++
			continue
		}
		seen[activities[i].ID] = true
		toSave = append(toSave, activities[i])
	}

	return toSave, skipped, nil
}

// index embeds the activities and upserts them into the vector database.
func (s *ImportService) index(ctx context.Context, activities []entities.Activity) error {
	texts := make([]string, len(activities))
	for i := range activities {
		texts[i] = activities[i].EmbeddingText()
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("generating embeddings: %w", err)
	}
	if len(embeddings) != len(activities) {
		return fmt.Errorf("embedder returned %d vectors for %d activities", len(embeddings), len(activities))
	}

	indexed := make([]entities.Activity, len(activities))
	copy(indexed, activities)
	for i := range indexed {
		indexed[i].Embedding = embeddings[i]
	}

	return s.vectorDB.SaveBatch(ctx, indexed)
}
