package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/obs"
)

// SQLite backed cache of directed travel times keyed by geohash pairs.
type SqliteTravelTimeCache struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSqliteTravelTimeCache(db *sql.DB) *SqliteTravelTimeCache {
	return &SqliteTravelTimeCache{DB: db, now: time.Now}
}

// Fetch the cached travel time for one leg, ignoring expired rows.
func (s *SqliteTravelTimeCache) Get(
	ctx context.Context,
	from, to domain.Coordinates,
) (_ float64, _ bool, err error) {
	defer obs.Time(ctx, "traveltime.cache.sqlite.Get")(&err)

	if s.DB == nil {
		return 0, false, errors.New("travel time cache: db is nil")
	}

	q := `
	SELECT duration_minutes
    FROM travel_time_cache
    WHERE origin_hash = ?
        AND destination_hash = ?
        AND (expires_at IS NULL OR expires_at > ?);
	`

	var minutes float64
	err = s.DB.QueryRowContext(ctx, q, PointKey(from), PointKey(to), s.now().Unix()).Scan(&minutes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get travel time cache: query travel_time_cache table: %w", err)
	}

	return minutes, true, nil
}

// Store the travel time for one leg. A ttl of 0 never expires.
func (s *SqliteTravelTimeCache) Put(
	ctx context.Context,
	from, to domain.Coordinates,
	minutes float64,
	ttl time.Duration,
) error {
	if s.DB == nil {
		return errors.New("travel time cache: db is nil")
	}

	var expiresAt any
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).Unix()
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO travel_time_cache (
        origin_hash,
        destination_hash,
        duration_minutes,
        expires_at
    )
    VALUES (?, ?, ?, ?);
	`, PointKey(from), PointKey(to), minutes, expiresAt)
	if err != nil {
		return fmt.Errorf("insert travel time cache: %w", err)
	}

	return nil
}
