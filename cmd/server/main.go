package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pickup-trip-service/internal/adapters/cache"
	"pickup-trip-service/internal/adapters/source"
	"pickup-trip-service/internal/adapters/traveltime"
	"pickup-trip-service/internal/api"
	"pickup-trip-service/internal/config"
	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/db"
	"pickup-trip-service/internal/platform/logger"
	"pickup-trip-service/internal/ports"
	"pickup-trip-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (feed, OSRM, cache) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	src, err := newSource(cfg)
	if err != nil {
		l.Fatal("Failed to build coordinate source", zap.Error(err))
	}

	osrm, err := traveltime.NewOSRMOracle(
		cfg.OSRM.BaseURL,
		cfg.OSRM.Timeout,
		traveltime.WithProfile(cfg.OSRM.Profile),
		traveltime.WithMaxAttempts(cfg.OSRM.MaxAttempts),
	)
	if err != nil {
		l.Fatal("Failed to build OSRM oracle", zap.Error(err))
	}

	var oracle ports.TravelTimeOracle = osrm

	// Persistent cache avoids repeated OSRM calls for stops seen in earlier runs.
	ttCache, closeCache, err := openCache(cfg)
	if err != nil {
		l.Fatal("Failed to open travel time cache", zap.Error(err))
	}
	defer closeCache()
	if ttCache != nil {
		oracle = traveltime.NewCachedOracle(osrm, ttCache, cfg.Cache.TTL)
	}

	depot := services.DefaultDepot{Address: cfg.Depot.Address}
	if cfg.Depot.HasFallback() {
		depot.Coords = &domain.Coordinates{Lat: cfg.Depot.Lat, Lon: cfg.Depot.Lon}
	}

	planner := services.NewTripPlanner(oracle, cfg.Planner.MaxParallel)
	svc := services.NewPlanService(src, planner, depot, cfg.AppPassword)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(svc, cfg.PlanTimeout)

	// Write timeout leaves room for a full planning run on a cold cache.
	addr := ":" + strconv.Itoa(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.PlanTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	l.Info("Server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil {
		l.Fatal("Server failed", zap.Error(err))
	}
}

func newSource(cfg *config.AppConfig) (ports.CoordinateSource, error) {
	cols := source.Columns{
		Address: cfg.Source.AddressCol,
		Lat:     cfg.Source.LatCol,
		Lon:     cfg.Source.LonCol,
	}

	if cfg.Source.XLSXPath != "" {
		src, err := source.NewXLSXSource(cfg.Source.XLSXPath, cfg.Source.XLSXSheet, cols)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	src, err := source.NewCSVSource(cfg.Source.CSVURL, cols, cfg.OSRM.Timeout)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// openCache returns nil when caching is disabled. The returned close func is
// always safe to call.
func openCache(cfg *config.AppConfig) (ports.TravelTimeCache, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case config.CacheSQLite:
		if dir := filepath.Dir(cfg.Cache.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, noop, fmt.Errorf("open cache: create %q: %w", dir, err)
			}
		}

		conn, err := db.OpenSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, noop, err
		}

		// Initialize schema on startup for local runs.
		if err := cache.InitSQLiteSchema(context.Background(), conn); err != nil {
			conn.Close()
			return nil, noop, fmt.Errorf("open cache: %w", err)
		}
		return cache.NewSqliteTravelTimeCache(conn), func() { conn.Close() }, nil

	case config.CachePostgres:
		conn, err := db.Open(cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return cache.NewSQLTravelTimeCache(conn), func() { conn.Close() }, nil

	case config.CacheRedis:
		rc, err := cache.NewRedisTravelTimeCache(cfg.Cache.RedisURL)
		if err != nil {
			return nil, noop, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, noop, err
		}
		return rc, func() { rc.Close() }, nil
	}

	return nil, noop, nil
}
