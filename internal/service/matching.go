package service

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/metrics"
	"carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/routing"
)

// MatchingConfig tunes candidate evaluation.
type MatchingConfig struct {
	Concurrency       int     // Parallel routing calls, at least 1
	CandidateRadiusKm float64 // Extra radius for the geo pre-filter, 0 disables it
}

// MatchingService ranks riders against a driver's ride.
type MatchingService struct {
	driverRepo    repository.DriverRepository
	riderRepo     repository.RiderRepository
	rideRepo      repository.RideRepository
	router        routing.Router
	locationStore redis.RiderLocationStoreInterface
	scorer        *Scorer
	cfg           MatchingConfig
	logger        *zap.Logger
}

// NewMatchingService creates a new MatchingService. locationStore may be nil.
func NewMatchingService(
	driverRepo repository.DriverRepository,
	riderRepo repository.RiderRepository,
	rideRepo repository.RideRepository,
	router routing.Router,
	locationStore redis.RiderLocationStoreInterface,
	scorer *Scorer,
	cfg MatchingConfig,
	logger *zap.Logger,
) *MatchingService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &MatchingService{
		driverRepo:    driverRepo,
		riderRepo:     riderRepo,
		rideRepo:      rideRepo,
		router:        router,
		locationStore: locationStore,
		scorer:        scorer,
		cfg:           cfg,
		logger:        logger,
	}
}

// RankRiders scores every eligible rider against the driver's ride, best first.
// Eligible riders share the driver's workplace and are unassigned or already in
// this ride. Riders whose routes cannot be computed are left out.
func (s *MatchingService) RankRiders(ctx context.Context, driverID string) ([]domain.MatchScore, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	ride, err := s.rideRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	all, err := s.riderRepo.GetByWorkplace(ctx, driver.Workplace.Name)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Rider, len(all))
	var candidates []*domain.Rider
	for _, r := range all {
		byID[r.ID] = r
		if !r.HasRide() || r.RideID == ride.ID {
			candidates = append(candidates, r)
		}
	}
	candidates = s.prefilter(ctx, driver, ride, candidates)

	inRide := make([]*domain.Rider, 0, len(ride.RiderIDs))
	for _, id := range ride.RiderIDs {
		r, ok := byID[id]
		if !ok {
			if r, err = s.riderRepo.GetByID(ctx, id); err != nil {
				return nil, err
			}
		}
		inRide = append(inRide, r)
	}

	geometry := ride.Geometry()
	if len(geometry) == 0 {
		geometry = []domain.Point{driver.Home, driver.Workplace.Location}
	}

	results := make([]*domain.MatchScore, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			score, err := s.scoreCandidate(gctx, driver, ride, inRide, geometry, candidate)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				metrics.RankedCandidatesTotal.WithLabelValues("skipped").Inc()
				s.logger.Warn("skipping candidate, route unavailable",
					zap.String("driver_id", driver.ID),
					zap.String("rider_id", candidate.ID),
					zap.Error(err),
				)
				return nil
			}
			metrics.RankedCandidatesTotal.WithLabelValues("scored").Inc()
			results[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make([]domain.MatchScore, 0, len(results))
	for _, r := range results {
		if r != nil {
			scores = append(scores, *r)
		}
	}
	sortScores(scores)

	return scores, nil
}

// scoreCandidate compares the ride with and without the candidate.
func (s *MatchingService) scoreCandidate(
	ctx context.Context,
	driver *domain.Driver,
	ride *domain.Ride,
	inRide []*domain.Rider,
	geometry []domain.Point,
	candidate *domain.Rider,
) (*domain.MatchScore, error) {
	var with, without *domain.Route
	member := ride.HasRider(candidate.ID)

	if member {
		with = &ride.Route
		others := make([]*domain.Rider, 0, len(inRide))
		for _, r := range inRide {
			if r.ID != candidate.ID {
				others = append(others, r)
			}
		}
		var err error
		if len(others) == 0 {
			without, err = s.router.DirectRoute(ctx, driver.Home, driver.Workplace.Location)
		} else {
			without, err = s.router.OptimizedRoute(ctx, rideStops(driver, others))
		}
		if err != nil {
			return nil, err
		}
	} else {
		without = &ride.Route
		riders := append(append(make([]*domain.Rider, 0, len(inRide)+1), inRide...), candidate)
		var err error
		with, err = s.router.OptimizedRoute(ctx, rideStops(driver, riders))
		if err != nil {
			return nil, err
		}
	}

	detourTime := with.Duration - without.Duration
	if detourTime < 0 {
		detourTime = 0
	}
	detourKm := with.DistanceKm - without.DistanceKm
	if detourKm < 0 {
		detourKm = 0
	}
	closestKm := geo.DistanceToPolylineKm(candidate.Home, geometry)

	return &domain.MatchScore{
		RiderID:           candidate.ID,
		RiderName:         candidate.Name,
		Score:             s.scorer.Score(detourTime, closestKm, detourKm),
		DetourTime:        detourTime,
		ClosestDistanceKm: closestKm,
		DetourDistanceKm:  detourKm,
		InRide:            member,
		WithinDetourLimit: with.Duration <= ride.DirectDuration+driver.MaxDetour,
	}, nil
}

// prefilter keeps candidates whose home lies inside a circle around the
// midpoint of the driver's commute. Ride members always pass.
func (s *MatchingService) prefilter(ctx context.Context, driver *domain.Driver, ride *domain.Ride, candidates []*domain.Rider) []*domain.Rider {
	if s.locationStore == nil || s.cfg.CandidateRadiusKm <= 0 {
		return candidates
	}

	center := geo.Centroid([]domain.Point{driver.Home, driver.Workplace.Location})
	radius := geo.HaversineKm(driver.Home, driver.Workplace.Location)/2 + s.cfg.CandidateRadiusKm

	nearby, err := s.locationStore.FindNearbyRiders(ctx, driver.Workplace.Name, center, radius)
	if err != nil {
		s.logger.Warn("geo pre-filter unavailable, scoring all candidates", zap.Error(err))
		return candidates
	}

	inRange := make(map[string]bool, len(nearby))
	for _, loc := range nearby {
		inRange[loc.RiderID] = true
	}

	filtered := candidates[:0:0]
	for _, c := range candidates {
		switch {
		case inRange[c.ID] || ride.HasRider(c.ID):
			filtered = append(filtered, c)
		case geo.HaversineKm(center, c.Home) <= radius:
			// In range but absent from the index, e.g. a failed GEOADD at registration.
			s.reindex(ctx, driver.Workplace.Name, c)
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func (s *MatchingService) reindex(ctx context.Context, workplace string, rider *domain.Rider) {
	if err := s.locationStore.AddRider(ctx, workplace, rider.ID, rider.Home); err != nil {
		s.logger.Warn("failed to re-index rider home", zap.String("rider_id", rider.ID), zap.Error(err))
		return
	}
	s.logger.Info("re-indexed rider home", zap.String("rider_id", rider.ID))
}

// sortScores orders by score descending, then rider name and ID ascending.
func sortScores(scores []domain.MatchScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		if scores[i].RiderName != scores[j].RiderName {
			return scores[i].RiderName < scores[j].RiderName
		}
		return scores[i].RiderID < scores[j].RiderID
	})
}
