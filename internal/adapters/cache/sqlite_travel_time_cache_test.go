package cache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	depot  = domain.Coordinates{Lat: 47.797121, Lon: -122.310876}
	pickup = domain.Coordinates{Lat: 47.81, Lon: -122.3}
)

func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, InitSQLiteSchema(context.Background(), conn))
	return conn
}

func TestSqliteTravelTimeCache_PutGet(t *testing.T) {
	cache := NewSqliteTravelTimeCache(openTestSQLite(t))
	ctx := context.Background()

	_, found, err := cache.Get(ctx, depot, pickup)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Put(ctx, depot, pickup, 12.5, time.Hour))

	minutes, found, err := cache.Get(ctx, depot, pickup)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 12.5, minutes)

	// Legs are directed.
	_, found, err = cache.Get(ctx, pickup, depot)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSqliteTravelTimeCache_PutOverwrites(t *testing.T) {
	cache := NewSqliteTravelTimeCache(openTestSQLite(t))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, depot, pickup, 10, 0))
	require.NoError(t, cache.Put(ctx, depot, pickup, 11, 0))

	minutes, found, err := cache.Get(ctx, depot, pickup)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 11.0, minutes)
}

func TestSqliteTravelTimeCache_Expiry(t *testing.T) {
	cache := NewSqliteTravelTimeCache(openTestSQLite(t))
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return base }

	require.NoError(t, cache.Put(ctx, depot, pickup, 7, time.Minute))

	_, found, err := cache.Get(ctx, depot, pickup)
	require.NoError(t, err)
	assert.True(t, found)

	cache.now = func() time.Time { return base.Add(2 * time.Minute) }

	_, found, err = cache.Get(ctx, depot, pickup)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSqliteTravelTimeCache_NilDB(t *testing.T) {
	cache := NewSqliteTravelTimeCache(nil)

	_, _, err := cache.Get(context.Background(), depot, pickup)
	assert.Error(t, err)
	assert.Error(t, cache.Put(context.Background(), depot, pickup, 1, 0))
}

func TestPurgeExpired_SQLite(t *testing.T) {
	conn := openTestSQLite(t)
	cache := NewSqliteTravelTimeCache(conn)
	ctx := context.Background()

	cache.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	require.NoError(t, cache.Put(ctx, depot, pickup, 3, time.Hour))
	require.NoError(t, cache.Put(ctx, pickup, depot, 4, 0))

	n, err := PurgeExpired(ctx, conn, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	cache.now = time.Now
	_, found, err := cache.Get(ctx, pickup, depot)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestInitSchema_NilDB(t *testing.T) {
	assert.Error(t, InitSQLiteSchema(context.Background(), nil))
	assert.Error(t, InitPostgresSchema(context.Background(), nil))
}
