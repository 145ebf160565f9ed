package services

import (
	"context"
	"sync"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/ports"

	"golang.org/x/sync/singleflight"
)

type pairKey struct {
	from, to domain.Coordinates
}

// Memo memoizes an oracle per (from, to) pair for the lifetime of one
// planning run. Unreachable results are memoized too, so a failed leg is not
// retried within the run. Concurrent lookups of the same pair share a single
// inner call.
type Memo struct {
	inner ports.TravelTimeOracle

	mu      sync.RWMutex
	entries map[pairKey]float64
	group   singleflight.Group
}

func NewMemo(inner ports.TravelTimeOracle) *Memo {
	return &Memo{
		inner:   inner,
		entries: make(map[pairKey]float64),
	}
}

func (m *Memo) TravelMinutes(ctx context.Context, from, to *domain.Coordinates) float64 {
	if from == nil || to == nil {
		return ports.Unreachable
	}

	key := pairKey{from: *from, to: *to}

	m.mu.RLock()
	v, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return v
	}

	res, _, _ := m.group.Do(flightKey(key), func() (any, error) {
		minutes := m.inner.TravelMinutes(ctx, from, to)

		m.mu.Lock()
		m.entries[key] = minutes
		m.mu.Unlock()

		return minutes, nil
	})

	return res.(float64)
}

// Len returns the number of memoized pairs.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func flightKey(k pairKey) string {
	return k.from.String() + ";" + k.to.String()
}
