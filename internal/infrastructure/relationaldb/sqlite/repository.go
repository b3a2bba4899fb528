// Package sqlite opens the activity store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/activity-core/internal/infrastructure/relationaldb"
)

const memoryPath = ":memory:"

// NewRepository opens (or creates) the SQLite database at path and ensures the schema.
func NewRepository(ctx context.Context, path string) (*relationaldb.Repository, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dialect := relationaldb.SQLiteDialect{}
	db, err := sql.Open(dialect.DriverName(), path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	repo := relationaldb.NewRepository(db, dialect)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("setting busy timeout: %w", err)
	}

	return nil
}
