package relationaldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/domain/ports"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// maxInParams bounds the number of ids in one IN (...) clause.
const maxInParams = 500

const activityColumns = `site_id, id, name, type, summary, text, actor, status,
	rewind_id, is_rewindable, published_at, target_ts, created_at`

var _ ports.ActivityStore = (*Repository)(nil)

// Repository implements ports.ActivityStore on database/sql.
// Timestamps are stored as Unix nanoseconds so ordering is exact on every backend.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

// NewRepository wraps an open database.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// DB returns the underlying connection pool.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range r.dialect.SchemaSQL() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// SaveActivities upserts activities by (site, id) in one transaction.
func (r *Repository) SaveActivities(ctx context.Context, activities []entities.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, r.rebind(`
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (site_id, id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			summary = excluded.summary,
			text = excluded.text,
			actor = excluded.actor,
			status = excluded.status,
			rewind_id = excluded.rewind_id,
			is_rewindable = excluded.is_rewindable,
			published_at = excluded.published_at,
			target_ts = excluded.target_ts,
			created_at = excluded.created_at
	`))
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i := range activities {
		a := &activities[i]
		if a.SiteID == "" {
			return fmt.Errorf("activity %s: %w", a.ID, entities.ErrSiteRequired)
		}
		if !entities.InStorableRange(a.PublishedAt) ||
			(a.TargetTimestamp != nil && !entities.InStorableRange(*a.TargetTimestamp)) {
			return fmt.Errorf("activity %s: %w", a.ID, entities.ErrTimestampOutOfRange)
		}
		createdAt := a.CreatedAt
		if createdAt.IsZero() {
			createdAt = timeNow()
		}
		if _, err := stmt.ExecContext(ctx,
			a.SiteID,
			a.ID,
			a.Name,
			a.Type,
			a.Summary,
			a.Text,
			a.Actor,
			a.Status,
			a.RewindID,
			boolToInt(a.IsRewindable),
			a.PublishedAt.UnixNano(),
			nullableNanos(a.TargetTimestamp),
			createdAt.UnixNano(),
		); err != nil {
			return fmt.Errorf("saving activity %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing activities: %w", err)
	}
	return nil
}

// FindActivity finds one activity by ID.
func (r *Repository) FindActivity(ctx context.Context, siteID, id string) (*entities.Activity, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE site_id = ? AND id = ?
	`), siteID, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning activity: %w", err)
	}
	return a, nil
}

// ExistingIDs reports which of ids are already stored for the site.
func (r *Repository) ExistingIDs(ctx context.Context, siteID string, ids []string) (map[string]bool, error) {
	exists := make(map[string]bool, len(ids))

	for start := 0; start < len(ids); start += maxInParams {
		chunk := ids[start:min(start+maxInParams, len(ids))]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, siteID)
		for _, id := range chunk {
			args = append(args, id)
		}

		query := `SELECT id FROM activities WHERE site_id = ? AND id IN (` +
			strings.TrimSuffix(strings.Repeat("?, ", len(chunk)), ", ") + `)`

		rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
		if err != nil {
			return nil, fmt.Errorf("checking existing activities: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning activity id: %w", err)
			}
			exists[id] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}

	return exists, nil
}

// ListActivities lists a site's activities, newest first.
func (r *Repository) ListActivities(ctx context.Context, siteID string, filter ports.ActivityFilter) ([]entities.Activity, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + activityColumns + ` FROM activities WHERE site_id = ?`)
	args := []any{siteID}

	if !filter.Since.IsZero() {
		b.WriteString(` AND published_at >= ?`)
		args = append(args, boundedNanos(filter.Since))
	}
	if !filter.Until.IsZero() {
		b.WriteString(` AND published_at <= ?`)
		args = append(args, boundedNanos(filter.Until))
	}
	if filter.Name != "" {
		b.WriteString(` AND name = ?`)
		args = append(args, filter.Name)
	}
	b.WriteString(` ORDER BY published_at DESC, id DESC`)

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = math.MaxInt32
		}
		b.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, limit, filter.Offset)
	}

	return r.queryActivities(ctx, b.String(), args...)
}

// ListRewindCompletes lists a site's rewind-complete activities, newest first.
func (r *Repository) ListRewindCompletes(ctx context.Context, siteID string) ([]entities.Activity, error) {
	return r.ListActivities(ctx, siteID, ports.ActivityFilter{Name: entities.ActivityNameRewindComplete})
}

// CountActivities returns the number of stored activities for a site.
func (r *Repository) CountActivities(ctx context.Context, siteID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT COUNT(*) FROM activities WHERE site_id = ?`), siteID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting activities: %w", err)
	}
	return count, nil
}

// DeleteActivity removes a single activity.
func (r *Repository) DeleteActivity(ctx context.Context, siteID, id string) error {
	result, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM activities WHERE site_id = ? AND id = ?`), siteID, id)
	if err != nil {
		return fmt.Errorf("deleting activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrActivityNotFound
	}
	return nil
}

// DeleteSite removes every activity stored for a site. The audit log is kept.
func (r *Repository) DeleteSite(ctx context.Context, siteID string) (int, error) {
	result, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM activities WHERE site_id = ?`), siteID)
	if err != nil {
		return 0, fmt.Errorf("deleting site activities: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking deleted rows: %w", err)
	}
	return int(affected), nil
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, siteID, action, activityID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var activityIDPtr sql.NullString
	if activityID != "" {
		activityIDPtr = sql.NullString{String: activityID, Valid: true}
	}

	query := `INSERT INTO audit_log (site_id, action, activity_id, details, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.rebind(query), siteID, action, activityIDPtr, detailsJSON, timeNow().UnixNano())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog lists a site's audit entries, newest first. A limit <= 0 returns all.
func (r *Repository) FindAuditLog(ctx context.Context, siteID string, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT id, site_id, action, activity_id, details, created_at
		FROM audit_log
		WHERE site_id = ?
		ORDER BY id DESC
		LIMIT ?
	`), siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var (
			entry               entities.AuditEntry
			activityID, details sql.NullString
			createdAt           int64
		)
		if err := rows.Scan(&entry.ID, &entry.SiteID, &entry.Action, &activityID, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.ActivityID = activityID.String
		entry.CreatedAt = time.Unix(0, createdAt).UTC()

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *Repository) rebind(query string) string {
	return Rebind(r.dialect, query)
}

// queryActivities is a helper to execute activity queries.
func (r *Repository) queryActivities(ctx context.Context, query string, args ...any) ([]entities.Activity, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var activities []entities.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*entities.Activity, error) {
	var (
		a                      entities.Activity
		isRewindable           int64
		publishedAt, createdAt int64
		targetTS               sql.NullInt64
	)
	if err := row.Scan(
		&a.SiteID,
		&a.ID,
		&a.Name,
		&a.Type,
		&a.Summary,
		&a.Text,
		&a.Actor,
		&a.Status,
		&a.RewindID,
		&isRewindable,
		&publishedAt,
		&targetTS,
		&createdAt,
	); err != nil {
		return nil, err
	}

	a.IsRewindable = isRewindable != 0
	a.PublishedAt = time.Unix(0, publishedAt).UTC()
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	if targetTS.Valid {
		ts := time.Unix(0, targetTS.Int64).UTC()
		a.TargetTimestamp = &ts
	}
	return &a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

// boundedNanos clamps a filter bound to the storable range.
func boundedNanos(t time.Time) int64 {
	switch {
	case t.Before(entities.MinTimestamp):
		return math.MinInt64
	case t.After(entities.MaxTimestamp):
		return math.MaxInt64
	}
	return t.UnixNano()
}
