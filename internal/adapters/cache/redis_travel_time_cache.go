package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "traveltime:"

// RedisTravelTimeCache stores travel times as Redis strings with a TTL.
type RedisTravelTimeCache struct {
	client *redis.Client
}

// NewRedisTravelTimeCache creates a cache from a URL in the format
// redis://[:password@]host[:port][/database].
func NewRedisTravelTimeCache(redisURL string) (*RedisTravelTimeCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return &RedisTravelTimeCache{client: redis.NewClient(opts)}, nil
}

func (r *RedisTravelTimeCache) Get(
	ctx context.Context,
	from, to domain.Coordinates,
) (_ float64, _ bool, err error) {
	defer obs.Time(ctx, "traveltime.cache.redis.Get")(&err)

	key := redisKeyPrefix + PairKey(from, to)

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	minutes, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid cached value for key %s: %w", key, err)
	}

	return minutes, true, nil
}

// Put stores the travel time. A ttl of 0 means no expiration.
func (r *RedisTravelTimeCache) Put(
	ctx context.Context,
	from, to domain.Coordinates,
	minutes float64,
	ttl time.Duration,
) error {
	key := redisKeyPrefix + PairKey(from, to)
	val := strconv.FormatFloat(minutes, 'g', -1, 64)

	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (r *RedisTravelTimeCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisTravelTimeCache) Close() error {
	return r.client.Close()
}
