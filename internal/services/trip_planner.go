package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/logger"
	"pickup-trip-service/internal/platform/obs"
	"pickup-trip-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxParallel = 8

// PlanInput is one planning request against a prepared coordinate store.
type PlanInput struct {
	Depot            string
	Destinations     []string
	TimeLimitMinutes float64
	WaitMinutes      float64
}

// TripPlanner splits pickup destinations into depot round trips using a
// greedy nearest-neighbour heuristic.
//
// Each trip repeatedly takes the unvisited stop closest to the current one,
// as long as driving there, waiting and driving back to the depot still fits
// the time limit. It does not backtrack or reorder committed stops.
type TripPlanner struct {
	oracle      ports.TravelTimeOracle
	maxParallel int
}

func NewTripPlanner(oracle ports.TravelTimeOracle, maxParallel int) *TripPlanner {
	if maxParallel < 1 {
		maxParallel = defaultMaxParallel
	}
	return &TripPlanner{oracle: oracle, maxParallel: maxParallel}
}

// Plan builds the trips for one run. The oracle is memoized for the duration
// of the call only.
func (p *TripPlanner) Plan(
	ctx context.Context,
	in PlanInput,
	store *domain.CoordinateStore,
) (_ *domain.TripPlan, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	if p.oracle == nil {
		return nil, errors.New("plan trips: oracle is nil")
	}
	if math.IsNaN(in.TimeLimitMinutes) || in.TimeLimitMinutes <= 0 {
		return nil, fmt.Errorf("plan trips: time limit must be positive, got %v", in.TimeLimitMinutes)
	}
	if math.IsNaN(in.WaitMinutes) || in.WaitMinutes < 0 {
		return nil, fmt.Errorf("plan trips: wait time must not be negative, got %v", in.WaitMinutes)
	}

	depot := domain.NormalizeAddress(in.Depot)
	depotCoords, ok := store.Lookup(depot)
	if !ok {
		return nil, &domain.PlanError{Kind: domain.KindDepotNotFound, Address: depot}
	}

	unvisited := resolvableDestinations(in.Destinations, store)
	if len(unvisited) == 0 {
		return nil, domain.ErrNoValidDestinations
	}

	run := &planRun{
		planner: p,
		oracle:  NewMemo(p.oracle),
		store:   store,
		depot:   depot,
		home:    depotCoords,
		limit:   in.TimeLimitMinutes,
		wait:    in.WaitMinutes,
	}

	plan := &domain.TripPlan{
		Depot:        depot,
		LimitMinutes: in.TimeLimitMinutes,
		WaitMinutes:  in.WaitMinutes,
		Trips:        []domain.Trip{},
	}

	for len(unvisited) > 0 {
		trip, rest, blocked := run.buildTrip(ctx, len(plan.Trips)+1, unvisited)

		// Lookups made after cancellation come back Unreachable, so the trip
		// above says nothing about the budget.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("plan trips: %w", ctxErr)
		}

		// A trip that took no stop leaves the unvisited set unchanged, so the
		// next trip would do the same forever.
		if len(rest) == len(unvisited) {
			return nil, &domain.PlanError{Kind: domain.KindUnreachableWithinBudget, Address: blocked}
		}

		plan.Trips = append(plan.Trips, trip)
		unvisited = rest

		logger.Get().Debug("Trip closed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.Int("trip", trip.Number),
			zap.Int("stops", len(trip.Stops())),
			zap.Float64("minutes", trip.TotalEstimatedMinutes),
			zap.Int("remaining", len(unvisited)),
		)
	}

	return plan, nil
}

// resolvableDestinations trims, de-duplicates (first occurrence wins) and
// drops destinations without coordinates. The result order is the
// tie-break order for the whole run.
func resolvableDestinations(destinations []string, store *domain.CoordinateStore) []string {
	seen := make(map[string]struct{}, len(destinations))
	out := make([]string, 0, len(destinations))

	for _, d := range destinations {
		addr := domain.NormalizeAddress(d)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		if store.Has(addr) {
			out = append(out, addr)
		}
	}
	return out
}

type planRun struct {
	planner *TripPlanner
	oracle  ports.TravelTimeOracle
	store   *domain.CoordinateStore
	depot   string
	home    domain.Coordinates
	limit   float64
	wait    float64
}

// coords resolves an address, using the depot's own coordinate for the depot.
func (r *planRun) coords(addr string) *domain.Coordinates {
	if addr == r.depot {
		c := r.home
		return &c
	}
	c, ok := r.store.Lookup(addr)
	if !ok {
		return nil
	}
	return &c
}

// buildTrip closes one trip and returns the still-unvisited destinations.
// blocked names the stop that could not be taken when the trip ended empty.
func (r *planRun) buildTrip(
	ctx context.Context,
	number int,
	unvisited []string,
) (trip domain.Trip, rest []string, blocked string) {
	addresses := []string{r.depot}
	elapsed := 0.0
	last := r.depot

	rest = append([]string(nil), unvisited...)
	blocked = rest[0]

	for len(rest) > 0 {
		from := r.coords(last)
		if from == nil {
			break
		}

		idx, bestTime := r.nearest(ctx, from, rest)
		if idx < 0 {
			break
		}
		candidate := rest[idx]
		if last == r.depot {
			blocked = candidate
		}

		legCost := bestTime + r.wait
		returnCost := r.oracle.TravelMinutes(ctx, r.coords(candidate), &r.home)

		if elapsed+legCost+returnCost > r.limit {
			break
		}

		addresses = append(addresses, candidate)
		elapsed += legCost
		rest = append(rest[:idx], rest[idx+1:]...)
		last = candidate
	}

	if from := r.coords(last); from != nil {
		elapsed += r.oracle.TravelMinutes(ctx, from, &r.home)
	}
	addresses = append(addresses, r.depot)

	return domain.Trip{
		Number:                number,
		Addresses:             addresses,
		TotalEstimatedMinutes: elapsed,
	}, rest, blocked
}

// nearest returns the index and travel time of the candidate closest to from.
// Lookups fan out concurrently; selection runs afterwards in candidate order,
// so the first of several equal minima wins. It returns -1 when every
// candidate is unreachable.
func (r *planRun) nearest(ctx context.Context, from *domain.Coordinates, candidates []string) (int, float64) {
	times := make([]float64, len(candidates))

	var g errgroup.Group
	g.SetLimit(r.planner.maxParallel)

	for i, addr := range candidates {
		i := i
		to := r.coords(addr)
		g.Go(func() error {
			times[i] = r.oracle.TravelMinutes(ctx, from, to)
			return nil
		})
	}
	_ = g.Wait()

	best, bestTime := -1, ports.Unreachable
	for i, t := range times {
		if t < bestTime {
			best, bestTime = i, t
		}
	}
	return best, bestTime
}
