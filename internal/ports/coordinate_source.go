package ports

import (
	"context"
	"pickup-trip-service/internal/domain"
)

// Port: a boundary for loading addresses and coordinates from the tabular feed.
type CoordinateSource interface {
	// Build a fresh coordinate store. Addresses are returned in feed order.
	Load(ctx context.Context) (addresses []string, store *domain.CoordinateStore, err error)
}
