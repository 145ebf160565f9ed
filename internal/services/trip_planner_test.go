package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"pickup-trip-service/internal/adapters/traveltime"
	"pickup-trip-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture places named points at distinct coordinates and serves the given
// directed legs through a MockOracle.
type fixture struct {
	store  *domain.CoordinateStore
	oracle *traveltime.MockOracle
}

func newFixture(names []string, pairs []traveltime.MockPair) fixture {
	points := make(map[string]domain.Coordinates, len(names))
	store := domain.NewCoordinateStore()
	for i, n := range names {
		c := domain.Coordinates{Lat: float64(i), Lon: float64(i) * 2}
		points[n] = c
		store.Set(n, c)
	}
	return fixture{store: store, oracle: traveltime.NewMockOracle(points, pairs)}
}

// symmetric expands undirected legs into both directions.
func symmetric(legs ...traveltime.MockPair) []traveltime.MockPair {
	out := make([]traveltime.MockPair, 0, len(legs)*2)
	for _, l := range legs {
		out = append(out, l, traveltime.MockPair{From: l.To, To: l.From, Minutes: l.Minutes})
	}
	return out
}

func dabFixture() fixture {
	return newFixture([]string{"D", "A", "B"}, symmetric(
		traveltime.MockPair{From: "D", To: "A", Minutes: 10},
		traveltime.MockPair{From: "D", To: "B", Minutes: 12},
		traveltime.MockPair{From: "A", To: "B", Minutes: 3},
	))
}

func TestTripPlanner_SingleTripWhenBudgetAllows(t *testing.T) {
	f := dabFixture()
	planner := NewTripPlanner(f.oracle, 4)

	plan, err := planner.Plan(context.Background(), PlanInput{
		Depot:            "D",
		Destinations:     []string{"A", "B"},
		TimeLimitMinutes: 40,
		WaitMinutes:      5,
	}, f.store)
	require.NoError(t, err)

	require.Equal(t, 1, plan.TotalTrips())
	assert.Equal(t, 1, plan.Trips[0].Number)
	assert.Equal(t, []string{"D", "A", "B", "D"}, plan.Trips[0].Addresses)
	assert.Equal(t, 35.0, plan.Trips[0].TotalEstimatedMinutes)
	assert.Equal(t, 40.0, plan.LimitMinutes)
	assert.Equal(t, 5.0, plan.WaitMinutes)
	assert.Equal(t, "D", plan.Depot)
}

func TestTripPlanner_SplitsWhenBudgetTight(t *testing.T) {
	f := dabFixture()
	planner := NewTripPlanner(f.oracle, 4)

	plan, err := planner.Plan(context.Background(), PlanInput{
		Depot:            "D",
		Destinations:     []string{"A", "B"},
		TimeLimitMinutes: 30,
		WaitMinutes:      5,
	}, f.store)
	require.NoError(t, err)

	require.Equal(t, 2, plan.TotalTrips())
	assert.Equal(t, []string{"D", "A", "D"}, plan.Trips[0].Addresses)
	assert.Equal(t, 25.0, plan.Trips[0].TotalEstimatedMinutes)
	assert.Equal(t, []string{"D", "B", "D"}, plan.Trips[1].Addresses)
	assert.Equal(t, 29.0, plan.Trips[1].TotalEstimatedMinutes)
	assert.Equal(t, 2, plan.Trips[1].Number)
}

func TestTripPlanner_TieBreakFollowsInputOrder(t *testing.T) {
	tests := []struct {
		name         string
		destinations []string
		wantFirst    string
	}{
		{name: "A first", destinations: []string{"A", "B"}, wantFirst: "A"},
		{name: "B first", destinations: []string{"B", "A"}, wantFirst: "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture([]string{"D", "A", "B"}, symmetric(
				traveltime.MockPair{From: "D", To: "A", Minutes: 10},
				traveltime.MockPair{From: "D", To: "B", Minutes: 10},
				traveltime.MockPair{From: "A", To: "B", Minutes: 1},
			))

			plan, err := NewTripPlanner(f.oracle, 8).Plan(context.Background(), PlanInput{
				Depot:            "D",
				Destinations:     tt.destinations,
				TimeLimitMinutes: 100,
			}, f.store)
			require.NoError(t, err)

			require.Equal(t, 1, plan.TotalTrips())
			assert.Equal(t, tt.wantFirst, plan.Trips[0].Stops()[0])
		})
	}
}

func TestTripPlanner_UnreachableCandidatesEndTrip(t *testing.T) {
	// A and B cannot reach each other, so each gets its own trip.
	f := newFixture([]string{"D", "A", "B"}, symmetric(
		traveltime.MockPair{From: "D", To: "A", Minutes: 5},
		traveltime.MockPair{From: "D", To: "B", Minutes: 6},
	))

	plan, err := NewTripPlanner(f.oracle, 2).Plan(context.Background(), PlanInput{
		Depot:            "D",
		Destinations:     []string{"A", "B"},
		TimeLimitMinutes: 100,
	}, f.store)
	require.NoError(t, err)

	require.Equal(t, 2, plan.TotalTrips())
	assert.Equal(t, []string{"D", "A", "D"}, plan.Trips[0].Addresses)
	assert.Equal(t, 10.0, plan.Trips[0].TotalEstimatedMinutes)
	assert.Equal(t, []string{"D", "B", "D"}, plan.Trips[1].Addresses)
	assert.Equal(t, 12.0, plan.Trips[1].TotalEstimatedMinutes)
}

func TestTripPlanner_UnreachableWithinBudget(t *testing.T) {
	tests := []struct {
		name        string
		pairs       []traveltime.MockPair
		limit, wait float64
		wantAddress string
	}{
		{
			name: "round trip exceeds limit",
			pairs: symmetric(
				traveltime.MockPair{From: "D", To: "A", Minutes: 30},
				traveltime.MockPair{From: "D", To: "B", Minutes: 5},
			),
			limit: 40, wait: 5,
			wantAddress: "A",
		},
		{
			name:        "every leg unreachable",
			pairs:       nil,
			limit:       40,
			wantAddress: "B",
		},
		{
			name: "return leg unreachable",
			pairs: append(symmetric(
				traveltime.MockPair{From: "D", To: "B", Minutes: 5},
			), traveltime.MockPair{From: "D", To: "A", Minutes: 1}),
			limit:       40,
			wantAddress: "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture([]string{"D", "A", "B"}, tt.pairs)

			plan, err := NewTripPlanner(f.oracle, 4).Plan(context.Background(), PlanInput{
				Depot:            "D",
				Destinations:     []string{"B", "A"},
				TimeLimitMinutes: tt.limit,
				WaitMinutes:      tt.wait,
			}, f.store)

			require.Error(t, err)
			assert.Nil(t, plan)
			assert.True(t, errors.Is(err, domain.ErrUnreachableWithinBudget))

			var pe *domain.PlanError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantAddress, pe.Address)
		})
	}
}

func TestTripPlanner_CancelledRunIsNotABudgetFailure(t *testing.T) {
	f := dabFixture()
	planner := NewTripPlanner(ctxOracle{inner: f.oracle}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan, err := planner.Plan(ctx, PlanInput{
		Depot:            "D",
		Destinations:     []string{"A", "B"},
		TimeLimitMinutes: 40,
		WaitMinutes:      5,
	}, f.store)

	require.Error(t, err)
	assert.Nil(t, plan)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, domain.KindOf(err))
}

func TestTripPlanner_NoValidDestinations(t *testing.T) {
	f := dabFixture()

	_, err := NewTripPlanner(f.oracle, 4).Plan(context.Background(), PlanInput{
		Depot:            "D",
		Destinations:     []string{"X", "Y", "  "},
		TimeLimitMinutes: 40,
	}, f.store)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoValidDestinations))
	assert.Zero(t, f.oracle.Calls())
}

func TestTripPlanner_DepotNotFound(t *testing.T) {
	f := dabFixture()

	_, err := NewTripPlanner(f.oracle, 4).Plan(context.Background(), PlanInput{
		Depot:            "Nowhere",
		Destinations:     []string{"A"},
		TimeLimitMinutes: 40,
	}, f.store)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDepotNotFound))
	assert.Equal(t, domain.KindDepotNotFound, domain.KindOf(err))
	assert.Contains(t, err.Error(), "Nowhere")
}

func TestTripPlanner_NormalizesAndDeduplicates(t *testing.T) {
	f := dabFixture()

	plan, err := NewTripPlanner(f.oracle, 4).Plan(context.Background(), PlanInput{
		Depot:            " D ",
		Destinations:     []string{" A ", "A", "Missing", "B", "B "},
		TimeLimitMinutes: 40,
		WaitMinutes:      5,
	}, f.store)
	require.NoError(t, err)

	require.Equal(t, 1, plan.TotalTrips())
	assert.Equal(t, []string{"D", "A", "B", "D"}, plan.Trips[0].Addresses)
}

func TestTripPlanner_InvalidBudget(t *testing.T) {
	f := dabFixture()
	planner := NewTripPlanner(f.oracle, 4)

	tests := []struct {
		name        string
		limit, wait float64
	}{
		{name: "zero limit", limit: 0},
		{name: "negative limit", limit: -5},
		{name: "nan limit", limit: math.NaN()},
		{name: "negative wait", limit: 10, wait: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planner.Plan(context.Background(), PlanInput{
				Depot:            "D",
				Destinations:     []string{"A"},
				TimeLimitMinutes: tt.limit,
				WaitMinutes:      tt.wait,
			}, f.store)
			require.Error(t, err)
			assert.Empty(t, domain.KindOf(err))
		})
	}
}

func TestTripPlanner_MemoizesWithinRunOnly(t *testing.T) {
	f := dabFixture()
	planner := NewTripPlanner(f.oracle, 4)
	in := PlanInput{Depot: "D", Destinations: []string{"A", "B"}, TimeLimitMinutes: 30, WaitMinutes: 5}

	_, err := planner.Plan(context.Background(), in, f.store)
	require.NoError(t, err)

	for _, from := range []string{"D", "A", "B"} {
		for _, to := range []string{"D", "A", "B"} {
			assert.LessOrEqual(t, f.oracle.LegCalls(from, to), 1, "%s->%s", from, to)
		}
	}
	assert.Equal(t, 1, f.oracle.LegCalls("D", "A"))

	_, err = planner.Plan(context.Background(), in, f.store)
	require.NoError(t, err)
	assert.Equal(t, 2, f.oracle.LegCalls("D", "A"))
}

// Stops on a line one unit apart, travel time proportional to distance.
func TestTripPlanner_CoverageBudgetAndFraming(t *testing.T) {
	const n = 12
	names := []string{"D"}
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("P%02d", i))
	}

	var pairs []traveltime.MockPair
	for i, from := range names {
		for j, to := range names {
			if i == j {
				continue
			}
			pairs = append(pairs, traveltime.MockPair{From: from, To: to, Minutes: 2 * math.Abs(float64(i-j))})
		}
	}
	f := newFixture(names, pairs)

	for _, limit := range []float64{51, 60, 90, 300} {
		t.Run(fmt.Sprintf("limit %v", limit), func(t *testing.T) {
			plan, err := NewTripPlanner(f.oracle, 3).Plan(context.Background(), PlanInput{
				Depot:            "D",
				Destinations:     names[1:],
				TimeLimitMinutes: limit,
				WaitMinutes:      3,
			}, f.store)
			require.NoError(t, err)

			seen := map[string]int{}
			for i, trip := range plan.Trips {
				assert.Equal(t, i+1, trip.Number)
				require.GreaterOrEqual(t, len(trip.Addresses), 3)
				assert.Equal(t, "D", trip.Addresses[0])
				assert.Equal(t, "D", trip.Addresses[len(trip.Addresses)-1])
				assert.LessOrEqual(t, trip.TotalEstimatedMinutes, limit)
				for _, s := range trip.Stops() {
					seen[s]++
				}
			}

			assert.Len(t, seen, n)
			for addr, count := range seen {
				assert.Equal(t, 1, count, addr)
			}
		})
	}
}

func TestNewTripPlanner_DefaultParallelism(t *testing.T) {
	p := NewTripPlanner(dabFixture().oracle, 0)
	assert.Equal(t, defaultMaxParallel, p.maxParallel)
}
