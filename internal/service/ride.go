package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/routing"
)

const rideLockTTL = 30 * time.Second // Lock ride while its route is recomputed

// RideService handles changes to a driver's ride.
type RideService struct {
	tx           repository.Transactor
	driverRepo   repository.DriverRepository
	riderRepo    repository.RiderRepository
	rideRepo     repository.RideRepository
	router       routing.Router
	lockStore    redis.LockStoreInterface
	attemptStore redis.AttemptStoreInterface
	logger       *zap.Logger
}

// NewRideService creates a new RideService. lockStore and attemptStore may be nil.
func NewRideService(
	tx repository.Transactor,
	driverRepo repository.DriverRepository,
	riderRepo repository.RiderRepository,
	rideRepo repository.RideRepository,
	router routing.Router,
	lockStore redis.LockStoreInterface,
	attemptStore redis.AttemptStoreInterface,
	logger *zap.Logger,
) *RideService {
	return &RideService{
		tx:           tx,
		driverRepo:   driverRepo,
		riderRepo:    riderRepo,
		rideRepo:     rideRepo,
		router:       router,
		lockStore:    lockStore,
		attemptStore: attemptStore,
		logger:       logger,
	}
}

// GetRide returns the ride of a driver.
func (s *RideService) GetRide(ctx context.Context, driverID string) (*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.rideRepo.GetByDriverID(ctx, driverID)
}

// AddRider adds a rider to the driver's ride when the re-optimized route stays
// within the driver's accepted detour. Rejections are recorded for the ride summary.
func (s *RideService) AddRider(ctx context.Context, driverID, riderID string) (*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	driver, ride, unlock, err := s.lockDriverRide(ctx, driverID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	unlockRider, err := s.lockRider(ctx, riderID)
	if err != nil {
		return nil, err
	}
	defer unlockRider()

	rider, err := s.riderRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	if err := checkAddRider(driver, ride, rider); err != nil {
		s.recordFailure(ctx, ride.ID, addFailureMessage(driver, rider, err))
		return nil, err
	}

	riders, err := s.loadRiders(ctx, ride.RiderIDs)
	if err != nil {
		return nil, err
	}
	riders = append(riders, rider)

	route, err := s.router.OptimizedRoute(ctx, rideStops(driver, riders))
	if err != nil {
		s.recordFailure(ctx, ride.ID, fmt.Sprintf("Failed to compute a route adding %s: %v", rider.Name, err))
		return nil, fmt.Errorf("failed to compute route with rider %s: %w", rider.ID, err)
	}

	maxAllowed := ride.DirectDuration + driver.MaxDetour
	if route.Duration > maxAllowed {
		err := fmt.Errorf("%w: route takes %.2f minutes, limit is %.2f minutes",
			ErrDetourExceeded, route.Duration.Minutes(), maxAllowed.Minutes())
		s.recordFailure(ctx, ride.ID, addFailureMessage(driver, rider, err))
		return nil, err
	}

	ride.RiderIDs = append(ride.RiderIDs, rider.ID)
	ride.Route = *route
	ride.MatchedGeometry = s.matchGeometry(ctx, route)
	ride.UpdatedAt = time.Now().UTC()

	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Riders.AssignRide(ctx, rider.ID, ride.ID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrRiderHasRide
			}
			return err
		}
		return repos.Rides.Update(ctx, ride)
	})
	if err != nil {
		if errors.Is(err, ErrRiderHasRide) {
			s.recordFailure(ctx, ride.ID, addFailureMessage(driver, rider, err))
		}
		return nil, err
	}

	s.logger.Info("rider added to ride",
		zap.String("ride_id", ride.ID),
		zap.String("driver_id", driver.ID),
		zap.String("rider_id", rider.ID),
		zap.Duration("detour", ride.Detour()),
	)

	return ride, nil
}

// RemoveRider takes a rider out of the driver's ride and re-plans the route for
// the remaining riders. A ride without riders returns to the direct route.
func (s *RideService) RemoveRider(ctx context.Context, driverID, riderID string) (*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	driver, ride, unlock, err := s.lockDriverRide(ctx, driverID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !ride.HasRider(riderID) {
		return nil, ErrRiderNotInRide
	}

	remaining := make([]string, 0, len(ride.RiderIDs)-1)
	for _, id := range ride.RiderIDs {
		if id != riderID {
			remaining = append(remaining, id)
		}
	}

	if len(remaining) == 0 {
		direct, err := s.router.DirectRoute(ctx, driver.Home, driver.Workplace.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to compute direct route: %w", err)
		}
		ride.Route = *direct
		ride.MatchedGeometry = direct.Geometry
		ride.DirectDuration = direct.Duration
		ride.DirectDistanceKm = direct.DistanceKm
	} else {
		riders, err := s.loadRiders(ctx, remaining)
		if err != nil {
			return nil, err
		}
		route, err := s.router.OptimizedRoute(ctx, rideStops(driver, riders))
		if err != nil {
			return nil, fmt.Errorf("failed to compute route without rider %s: %w", riderID, err)
		}
		ride.Route = *route
		ride.MatchedGeometry = s.matchGeometry(ctx, route)
	}
	ride.RiderIDs = remaining
	ride.UpdatedAt = time.Now().UTC()

	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		// A rider row already pointing elsewhere only needs the ride side cleaned up.
		if err := repos.Riders.UnassignRide(ctx, riderID, ride.ID); err != nil && !errors.Is(err, repository.ErrConflict) {
			return err
		}
		return repos.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("rider removed from ride",
		zap.String("ride_id", ride.ID),
		zap.String("driver_id", driver.ID),
		zap.String("rider_id", riderID),
	)

	return ride, nil
}

// RideSummary builds a presentation view of the driver's ride. Failed add
// attempts recorded since the previous summary are included and cleared.
func (s *RideService) RideSummary(ctx context.Context, driverID string) (*domain.RideSummary, error) {
	return s.summarize(ctx, driverID, true)
}

// RideOverview is RideSummary without failed attempts. It leaves them in place.
func (s *RideService) RideOverview(ctx context.Context, driverID string) (*domain.RideSummary, error) {
	return s.summarize(ctx, driverID, false)
}

func (s *RideService) summarize(ctx context.Context, driverID string, popFailures bool) (*domain.RideSummary, error) {
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
	riders, err := s.loadRiders(ctx, ride.RiderIDs)
	if err != nil {
		return nil, err
	}

	summary := &domain.RideSummary{
		RideID:         ride.ID,
		Driver:         driver,
		Riders:         riders,
		DistanceKm:     ride.Route.DistanceKm,
		Duration:       ride.Route.Duration,
		Detour:         ride.Detour(),
		DirectDuration: ride.DirectDuration,
		Geometry:       ride.Geometry(),
	}

	summary.Stops = s.orderedStops(driver, riders, ride.Route.StopOrder)
	for i, d := range ride.Route.LegDurations {
		if i+1 >= len(summary.Stops) {
			break
		}
		summary.Legs = append(summary.Legs, domain.Leg{
			From:     summary.Stops[i].Name,
			To:       summary.Stops[i+1].Name,
			Duration: d,
		})
	}

	if popFailures && s.attemptStore != nil {
		failures, err := s.attemptStore.PopFailures(ctx, ride.ID)
		if err != nil {
			s.logger.Warn("failed to read failed attempts", zap.String("ride_id", ride.ID), zap.Error(err))
		}
		summary.FailedAttempts = failures
	}

	return summary, nil
}

// orderedStops lists the ride's stops in visit order. Join order is used when
// the stored order does not describe every stop.
func (s *RideService) orderedStops(driver *domain.Driver, riders []*domain.Rider, order []int) []domain.Stop {
	stops := make([]domain.Stop, 0, len(riders)+2)
	stops = append(stops, domain.Stop{Name: driver.Name, Role: domain.StopRoleDriver, Point: driver.Home})
	for _, r := range riders {
		stops = append(stops, domain.Stop{Name: r.Name, Role: domain.StopRoleRider, Point: r.Home})
	}
	stops = append(stops, domain.Stop{Name: driver.Workplace.Name, Role: domain.StopRoleWorkplace, Point: driver.Workplace.Location})

	if !isPermutation(order, len(stops)) {
		s.logger.Warn("stop order does not match stops, using join order",
			zap.Int("order_len", len(order)),
			zap.Int("stops", len(stops)),
		)
		return stops
	}

	ordered := make([]domain.Stop, len(stops))
	for k, idx := range order {
		ordered[k] = stops[idx]
	}
	return ordered
}

// lockDriverRide loads the driver and acquires their ride lock. The ride is
// read after the lock is held so concurrent changes are observed.
func (s *RideService) lockDriverRide(ctx context.Context, driverID string) (*domain.Driver, *domain.Ride, func(), error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, nil, nil, err
	}
	ride, err := s.rideRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		return nil, nil, nil, err
	}

	unlock := func() {}
	if s.lockStore != nil {
		token, locked, err := s.lockStore.AcquireRideLock(ctx, ride.ID, rideLockTTL)
		if err != nil {
			return nil, nil, nil, err
		}
		if !locked {
			return nil, nil, nil, ErrRideBusy
		}
		rideID := ride.ID
		unlock = func() {
			if err := s.lockStore.ReleaseRideLock(context.WithoutCancel(ctx), rideID, token); err != nil {
				s.logger.Warn("failed to release ride lock", zap.String("ride_id", rideID), zap.Error(err))
			}
		}

		ride, err = s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			unlock()
			return nil, nil, nil, err
		}
	}

	return driver, ride, unlock, nil
}

// lockRider takes the rider's assignment lock. It is always taken after the
// ride lock, so two adds never wait on each other in opposite order.
func (s *RideService) lockRider(ctx context.Context, riderID string) (func(), error) {
	if s.lockStore == nil {
		return func() {}, nil
	}

	token, locked, err := s.lockStore.AcquireRiderLock(ctx, riderID, rideLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrRiderBusy
	}

	return func() {
		if err := s.lockStore.ReleaseRiderLock(context.WithoutCancel(ctx), riderID, token); err != nil {
			s.logger.Warn("failed to release rider lock", zap.String("rider_id", riderID), zap.Error(err))
		}
	}, nil
}

func (s *RideService) loadRiders(ctx context.Context, ids []string) ([]*domain.Rider, error) {
	riders := make([]*domain.Rider, 0, len(ids))
	for _, id := range ids {
		rider, err := s.riderRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load rider %s: %w", id, err)
		}
		riders = append(riders, rider)
	}
	return riders, nil
}

// matchGeometry snaps a route geometry to roads, keeping the raw geometry on failure.
func (s *RideService) matchGeometry(ctx context.Context, route *domain.Route) []domain.Point {
	if len(route.Geometry) == 0 {
		return nil
	}
	matched, err := s.router.MatchToRoads(ctx, route.Geometry)
	if err != nil || matched == nil || len(matched.Geometry) == 0 {
		s.logger.Warn("map matching failed, using route geometry", zap.Error(err))
		return route.Geometry
	}
	return matched.Geometry
}

func (s *RideService) recordFailure(ctx context.Context, rideID, message string) {
	if s.attemptStore == nil {
		return
	}
	if err := s.attemptStore.RecordFailure(ctx, rideID, message); err != nil {
		s.logger.Warn("failed to record failed attempt", zap.String("ride_id", rideID), zap.Error(err))
	}
}

// checkAddRider applies the admission rules that need no routing.
func checkAddRider(driver *domain.Driver, ride *domain.Ride, rider *domain.Rider) error {
	switch {
	case rider.Workplace.Name != driver.Workplace.Name:
		return ErrWorkplaceMismatch
	case ride.HasRider(rider.ID):
		return ErrRiderAlreadyInRide
	case rider.HasRide():
		return ErrRiderHasRide
	case len(ride.RiderIDs) >= driver.MaxRiders:
		return ErrRideFull
	}
	return nil
}

func addFailureMessage(driver *domain.Driver, rider *domain.Rider, err error) string {
	switch {
	case errors.Is(err, ErrWorkplaceMismatch):
		return fmt.Sprintf("Rider %s does not match workplace %s", rider.Name, driver.Workplace.Name)
	case errors.Is(err, ErrRiderAlreadyInRide):
		return fmt.Sprintf("Rider %s is already in this ride", rider.Name)
	case errors.Is(err, ErrRiderHasRide):
		return fmt.Sprintf("Rider %s already has a ride", rider.Name)
	case errors.Is(err, ErrRideFull):
		return fmt.Sprintf("Driver %s's ride is full (max %d riders)", driver.Name, driver.MaxRiders)
	case errors.Is(err, ErrDetourExceeded):
		return fmt.Sprintf("Adding %s exceeds max detour of %.0f minutes", rider.Name, driver.MaxDetour.Minutes())
	}
	return fmt.Sprintf("Adding %s failed: %v", rider.Name, err)
}

// rideStops returns driver home, rider homes in join order, then the workplace.
func rideStops(driver *domain.Driver, riders []*domain.Rider) []domain.Point {
	stops := make([]domain.Point, 0, len(riders)+2)
	stops = append(stops, driver.Home)
	for _, r := range riders {
		stops = append(stops, r.Home)
	}
	return append(stops, driver.Workplace.Location)
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}
