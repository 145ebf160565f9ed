package traveltime

import (
	"context"
	"math"
	"time"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/logger"
	"pickup-trip-service/internal/platform/obs"
	"pickup-trip-service/internal/ports"

	"go.uber.org/zap"
)

// CachedOracle wraps another oracle with a persistent cache shared across
// planning runs. Only finite travel times are stored. Cache failures are
// logged and never change the result.
type CachedOracle struct {
	inner ports.TravelTimeOracle
	cache ports.TravelTimeCache
	ttl   time.Duration
}

func NewCachedOracle(inner ports.TravelTimeOracle, cache ports.TravelTimeCache, ttl time.Duration) *CachedOracle {
	return &CachedOracle{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedOracle) TravelMinutes(ctx context.Context, from, to *domain.Coordinates) float64 {
	if from == nil || to == nil {
		return ports.Unreachable
	}

	minutes, found, err := c.cache.Get(ctx, *from, *to)
	if err != nil {
		logger.Get().Warn("travel time cache read failed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.Error(err),
		)
	}
	if found {
		return minutes
	}

	minutes = c.inner.TravelMinutes(ctx, from, to)
	if math.IsInf(minutes, 1) || math.IsNaN(minutes) {
		return minutes
	}

	if err := c.cache.Put(ctx, *from, *to, minutes, c.ttl); err != nil {
		logger.Get().Warn("travel time cache write failed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.Error(err),
		)
	}

	return minutes
}
