package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	"pickup-trip-service/internal/adapters/cache"
	"pickup-trip-service/internal/config"
	"pickup-trip-service/internal/platform/db"
	"pickup-trip-service/internal/platform/logger"

	"go.uber.org/zap"
)

// cachetool prepares the SQL travel time cache.
//
//	cachetool         create the schema
//	cachetool purge   create the schema and delete expired rows
func main() {
	cfg, err := config.Read(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()
	l := logger.Get()

	purge := len(os.Args) > 1 && os.Args[1] == "purge"

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var (
		conn     *sql.DB
		postgres bool
	)

	switch cfg.Cache.Backend {
	case config.CachePostgres:
		conn, err = db.Open(cfg.Cache.DatabaseURL)
		postgres = true
	case config.CacheSQLite:
		if dir := filepath.Dir(cfg.Cache.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				l.Fatal("Create cache directory failed", zap.String("dir", dir), zap.Error(err))
			}
		}
		conn, err = db.OpenSQLite(cfg.Cache.SQLitePath)
	default:
		l.Fatal("CACHE_BACKEND must be sqlite or postgres", zap.String("backend", cfg.Cache.Backend))
	}
	if err != nil {
		l.Fatal("Open cache database failed", zap.Error(err))
	}
	defer conn.Close()

	l.Info("Initializing cache schema...", zap.String("backend", cfg.Cache.Backend))
	if postgres {
		err = cache.InitPostgresSchema(ctx, conn)
	} else {
		err = cache.InitSQLiteSchema(ctx, conn)
	}
	if err != nil {
		l.Fatal("Schema initialization failed", zap.Error(err))
	}
	l.Info("Schema ready.")

	if !purge {
		return
	}

	n, err := cache.PurgeExpired(ctx, conn, postgres)
	if err != nil {
		l.Fatal("Purge failed", zap.Error(err))
	}
	l.Info("Purge complete.", zap.Int64("deleted", n))
}
