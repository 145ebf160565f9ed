package traveltime

import (
	"context"
	"sync"
	"sync/atomic"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/ports"
)

// MockPair is one directed leg known to the MockOracle.
type MockPair struct {
	From, To string
	Minutes  float64
}

// MockOracle answers travel times for named points from a fixed table.
// Pairs missing from the table are Unreachable.
type MockOracle struct {
	names map[domain.Coordinates]string
	m     map[string]float64
	calls atomic.Int64

	mu   sync.Mutex
	legs map[string]int
}

func NewMockOracle(points map[string]domain.Coordinates, pairs []MockPair) *MockOracle {
	names := make(map[domain.Coordinates]string, len(points))
	for name, c := range points {
		names[c] = name
	}

	m := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		m[p.From+"|"+p.To] = p.Minutes
	}

	return &MockOracle{names: names, m: m, legs: make(map[string]int)}
}

func (p *MockOracle) TravelMinutes(ctx context.Context, from, to *domain.Coordinates) float64 {
	p.calls.Add(1)
	if from == nil || to == nil {
		return ports.Unreachable
	}

	key := p.names[*from] + "|" + p.names[*to]

	p.mu.Lock()
	p.legs[key]++
	p.mu.Unlock()

	minutes, ok := p.m[key]
	if !ok {
		return ports.Unreachable
	}
	return minutes
}

// Calls returns how many lookups the oracle has served.
func (p *MockOracle) Calls() int64 { return p.calls.Load() }

// LegCalls returns how many times the named leg was looked up.
func (p *MockOracle) LegCalls(from, to string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.legs[from+"|"+to]
}
