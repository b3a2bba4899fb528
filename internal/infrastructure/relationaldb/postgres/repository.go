// Package postgres opens the activity store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/ersonp/activity-core/internal/infrastructure/relationaldb"
)

const (
	maxOpenConns    = 10
	connMaxIdleTime = 5 * time.Minute
)

// NewRepository connects to the PostgreSQL database at dsn and ensures the schema.
func NewRepository(ctx context.Context, dsn string) (*relationaldb.Repository, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	dialect := relationaldb.PostgresDialect{}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	repo := relationaldb.NewRepository(db, dialect)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}
