package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/logger"
	"pickup-trip-service/internal/platform/obs"
	"pickup-trip-service/internal/ports"

	"go.uber.org/zap"
)

// DefaultDepot is used when the requested depot is blank or has no
// coordinates in the feed. Coords is nil when no fallback is configured.
type DefaultDepot struct {
	Address string
	Coords  *domain.Coordinates
}

// PlanRequest is one user request for a trip plan.
type PlanRequest struct {
	DepotAddress     string
	TimeLimitMinutes int
	WaitMinutes      int
	AccessToken      string
}

// PlanService runs a full planning pass: load the feed, settle the depot,
// drop it from the pickups, gate on the access token and plan.
type PlanService struct {
	source   ports.CoordinateSource
	planner  *TripPlanner
	depot    DefaultDepot
	password string
}

func NewPlanService(
	source ports.CoordinateSource,
	planner *TripPlanner,
	depot DefaultDepot,
	password string,
) *PlanService {
	return &PlanService{
		source:   source,
		planner:  planner,
		depot:    depot,
		password: password,
	}
}

func (s *PlanService) Plan(ctx context.Context, req PlanRequest) (_ *domain.TripPlan, err error) {
	defer obs.Time(ctx, "service.Plan")(&err)

	log := logger.Get().With(zap.String("req_id", obs.RequestID(ctx)))

	addresses, store, err := s.source.Load(ctx)
	if err != nil {
		if domain.KindOf(err) == "" {
			err = &domain.PlanError{Kind: domain.KindSourceUnavailable, Err: err}
		}
		return nil, err
	}

	depot := s.resolveDepot(req.DepotAddress, store)

	pickups := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if domain.NormalizeAddress(addr) != depot {
			pickups = append(pickups, addr)
		}
	}

	if !s.authorized(req.AccessToken) {
		log.Warn("Access token rejected, planning without pickups")
		pickups = nil
	}

	log.Info("Planning trips",
		zap.String("depot", depot),
		zap.Int("pickups", len(pickups)),
		zap.Int("limit_minutes", req.TimeLimitMinutes),
		zap.Int("wait_minutes", req.WaitMinutes),
	)

	plan, err := s.planner.Plan(ctx, PlanInput{
		Depot:            depot,
		Destinations:     pickups,
		TimeLimitMinutes: float64(req.TimeLimitMinutes),
		WaitMinutes:      float64(req.WaitMinutes),
	}, store)

	// Cancelled lookups degrade to Unreachable, so any plan or planning error
	// produced after cancellation is not trustworthy.
	if ctxErr := ctx.Err(); ctxErr != nil && !IsCancellation(err) {
		return nil, fmt.Errorf("plan trips: %w", ctxErr)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Planned trips", zap.Int("trips", plan.TotalTrips()))
	return plan, nil
}

// resolveDepot picks the depot address for the run. When the requested depot
// is blank or unknown and fallback coordinates exist, the default depot is
// used and its coordinates are installed if the feed lacks them.
func (s *PlanService) resolveDepot(requested string, store *domain.CoordinateStore) string {
	depot := domain.NormalizeAddress(requested)
	if depot == "" {
		depot = domain.NormalizeAddress(s.depot.Address)
	}

	if store.Has(depot) || s.depot.Coords == nil {
		return depot
	}

	fallback := domain.NormalizeAddress(s.depot.Address)
	if !store.Has(fallback) {
		store.Set(fallback, *s.depot.Coords)
	}
	return fallback
}

func (s *PlanService) authorized(token string) bool {
	if s.password == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.password)) == 1
}

// IsCancellation reports whether err came from the run's context ending.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
