package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSQLiteSchema creates the travel_time_cache table in a SQLite database.
func InitSQLiteSchema(ctx context.Context, db *sql.DB) error {
	return initSchema(ctx, db, []string{
		`
		CREATE TABLE IF NOT EXISTS travel_time_cache (
			origin_hash TEXT NOT NULL,
			destination_hash TEXT NOT NULL,
			duration_minutes REAL NOT NULL,
			expires_at INTEGER,
			PRIMARY KEY (origin_hash, destination_hash)
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_travel_time_cache_expires_at
		ON travel_time_cache(expires_at);
		`,
	})
}

// InitPostgresSchema creates the travel_time_cache table in Postgres.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	return initSchema(ctx, db, []string{
		`
		CREATE TABLE IF NOT EXISTS travel_time_cache (
			origin_hash TEXT NOT NULL,
			destination_hash TEXT NOT NULL,
			duration_minutes DOUBLE PRECISION NOT NULL,
			expires_at TIMESTAMPTZ,
			PRIMARY KEY (origin_hash, destination_hash)
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_travel_time_cache_expires_at
		ON travel_time_cache(expires_at);
		`,
	})
}

func initSchema(ctx context.Context, db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// PurgeExpired deletes expired rows. Works against both SQLite (unix seconds)
// and Postgres (timestamptz) through the dialect-specific predicate.
func PurgeExpired(ctx context.Context, db *sql.DB, postgres bool) (int64, error) {
	if db == nil {
		return 0, errors.New("purge cache: DB is nil")
	}

	q := `DELETE FROM travel_time_cache WHERE expires_at IS NOT NULL AND expires_at <= CAST(strftime('%s','now') AS INTEGER);`
	if postgres {
		q = `DELETE FROM travel_time_cache WHERE expires_at IS NOT NULL AND expires_at <= NOW();`
	}

	res, err := db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge cache: rows affected: %w", err)
	}
	return n, nil
}
