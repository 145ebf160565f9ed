package ports

import (
	"context"
	"math"
	"pickup-trip-service/internal/domain"
	"time"
)

// Unreachable is the travel time reported when a leg cannot be resolved.
// It compares greater than any finite duration.
var Unreachable = math.Inf(1)

// Contract for retrieving the travel time between two coordinates.
type TravelTimeOracle interface {
	// Return the travel time in minutes from one coordinate to another.
	// A nil coordinate or any retrieval failure yields Unreachable; the
	// oracle never returns an error.
	TravelMinutes(ctx context.Context, from, to *domain.Coordinates) float64
}

// Persistent store for finite travel times shared across planning runs.
type TravelTimeCache interface {
	// Return the cached travel time for the pair, or found=false on a miss.
	Get(ctx context.Context, from, to domain.Coordinates) (minutes float64, found bool, err error)
	// Store the travel time for the pair.
	Put(ctx context.Context, from, to domain.Coordinates, minutes float64, ttl time.Duration) error
}
