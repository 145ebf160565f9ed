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

// SQLTravelTimeCache is a Postgres-backed cache of directed travel times.
type SQLTravelTimeCache struct {
	DB *sql.DB
}

func NewSQLTravelTimeCache(db *sql.DB) *SQLTravelTimeCache {
	return &SQLTravelTimeCache{DB: db}
}

// Fetch the cached travel time for one leg, ignoring expired rows.
func (s *SQLTravelTimeCache) Get(
	ctx context.Context,
	from, to domain.Coordinates,
) (_ float64, _ bool, err error) {
	defer obs.Time(ctx, "traveltime.cache.postgres.Get")(&err)

	if s.DB == nil {
		return 0, false, errors.New("travel time cache: db is nil")
	}

	q := `
	SELECT duration_minutes
    FROM travel_time_cache
    WHERE origin_hash = $1
        AND destination_hash = $2
        AND (expires_at IS NULL OR expires_at > NOW());
	`

	var minutes float64
	err = s.DB.QueryRowContext(ctx, q, PointKey(from), PointKey(to)).Scan(&minutes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get travel time cache: query travel_time_cache table: %w", err)
	}

	return minutes, true, nil
}

// Store the travel time for one leg. A ttl of 0 never expires.
func (s *SQLTravelTimeCache) Put(
	ctx context.Context,
	from, to domain.Coordinates,
	minutes float64,
	ttl time.Duration,
) error {
	if s.DB == nil {
		return errors.New("travel time cache: db is nil")
	}

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO travel_time_cache (origin_hash, destination_hash, duration_minutes, expires_at)
    VALUES ($1, $2, $3, $4)
	ON CONFLICT (origin_hash, destination_hash) DO UPDATE
	SET duration_minutes = EXCLUDED.duration_minutes,
		expires_at = EXCLUDED.expires_at;
	`, PointKey(from), PointKey(to), minutes, expiresAt)
	if err != nil {
		return fmt.Errorf("insert travel time cache: %w", err)
	}

	return nil
}
