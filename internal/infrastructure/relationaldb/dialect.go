// Package relationaldb provides the SQL-backed ActivityStore shared by the
// SQLite and PostgreSQL drivers.
package relationaldb

import (
	"fmt"
	"strings"
)

// Dialect abstracts the SQL that differs between database backends.
type Dialect interface {
	// DriverName returns the database/sql driver name.
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	// SQLite: "?", PostgreSQL: "$1", "$2", etc.
	Placeholder(index int) string

	// SchemaSQL returns the DDL statements that create the schema.
	SchemaSQL() []string
}

// SQLiteDialect implements Dialect for SQLite.
type SQLiteDialect struct{}

func (d SQLiteDialect) DriverName() string       { return "sqlite" }
func (d SQLiteDialect) Placeholder(_ int) string { return "?" }

func (d SQLiteDialect) SchemaSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS activities (
			site_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL DEFAULT '',
			actor TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			rewind_id TEXT NOT NULL DEFAULT '',
			is_rewindable INTEGER NOT NULL DEFAULT 0,
			published_at INTEGER NOT NULL,
			target_ts INTEGER,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (site_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_published ON activities(site_id, published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_name ON activities(site_id, name)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site_id TEXT NOT NULL,
			action TEXT NOT NULL,
			activity_id TEXT,
			details TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_site ON audit_log(site_id, id)`,
	}
}

// PostgresDialect implements Dialect for PostgreSQL through pgx.
type PostgresDialect struct{}

func (d PostgresDialect) DriverName() string           { return "pgx" }
func (d PostgresDialect) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }

func (d PostgresDialect) SchemaSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS activities (
			site_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL DEFAULT '',
			actor TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			rewind_id TEXT NOT NULL DEFAULT '',
			is_rewindable INTEGER NOT NULL DEFAULT 0,
			published_at BIGINT NOT NULL,
			target_ts BIGINT,
			created_at BIGINT NOT NULL,
			PRIMARY KEY (site_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_published ON activities(site_id, published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_name ON activities(site_id, name)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id BIGSERIAL PRIMARY KEY,
			site_id TEXT NOT NULL,
			action TEXT NOT NULL,
			activity_id TEXT,
			details TEXT,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_site ON audit_log(site_id, id)`,
	}
}

// Rebind rewrites "?" placeholders for the dialect.
// Queries must not contain literal question marks.
func Rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	index := 0
	for _, r := range query {
		if r == '?' {
			index++
			b.WriteString(d.Placeholder(index))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
