// Package db provides PostgreSQL access to the remote crate table.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	// ErrSlugConflict is returned when a write violates the slug uniqueness constraint.
	ErrSlugConflict = errors.New("slug already taken")

	// ErrInvalidFormat is returned when a write violates the format value-set constraint.
	ErrInvalidFormat = errors.New("format rejected by table constraint")
)

//go:embed schema.sql
var schema string

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool

	schemaMu sync.Mutex
	migrated bool
}

// New creates a new database connection pool.
// Connections are opened on first use, so an unreachable server is not an
// error here.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates the crate schema if it does not exist yet.
// Once it has succeeded, later calls do nothing.
func (db *DB) Migrate(ctx context.Context) error {
	db.schemaMu.Lock()
	defer db.schemaMu.Unlock()
	if db.migrated {
		return nil
	}
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	db.migrated = true
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Tracks returns a TrackRepository. Every repository call first makes sure
// the schema has been applied.
func (db *DB) Tracks() *TrackRepository {
	return &TrackRepository{pool: db.pool, migrate: db.Migrate}
}
