package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/routing"
)

// Seat limits. Driver home, workplace and the candidate being ranked against a
// full ride take three of the optimizer's stops.
const (
	minMaxRiders = 1
	maxMaxRiders = routing.MaxOptimizedStops - 3
)

// DriverService handles driver registration and lookup.
type DriverService struct {
	tx         repository.Transactor
	driverRepo repository.DriverRepository
	router     routing.Router
	workplaces *WorkplaceCatalog
	snapHomes  bool
	logger     *zap.Logger
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	tx repository.Transactor,
	driverRepo repository.DriverRepository,
	router routing.Router,
	workplaces *WorkplaceCatalog,
	snapHomes bool,
	logger *zap.Logger,
) *DriverService {
	return &DriverService{
		tx:         tx,
		driverRepo: driverRepo,
		router:     router,
		workplaces: workplaces,
		snapHomes:  snapHomes,
		logger:     logger,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	Name      string
	Home      domain.Point
	Workplace string
	MaxDetour time.Duration
	MaxRiders int
}

// RegisterDriverResult contains the created driver and their solo ride.
type RegisterDriverResult struct {
	Driver *domain.Driver
	Ride   *domain.Ride
}

// RegisterDriver creates a driver together with a solo ride along the direct route.
// No driver is stored when the direct route cannot be computed.
func (s *DriverService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*RegisterDriverResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if !req.Home.Valid() {
		return nil, ErrInvalidLocation
	}
	if req.MaxDetour <= 0 {
		return nil, ErrInvalidMaxDetour
	}
	if req.MaxRiders < minMaxRiders || req.MaxRiders > maxMaxRiders {
		return nil, fmt.Errorf("%w: must be between %d and %d", ErrInvalidMaxRiders, minMaxRiders, maxMaxRiders)
	}

	workplace, err := s.workplaces.Lookup(req.Workplace)
	if err != nil {
		return nil, err
	}

	home := req.Home
	if s.snapHomes {
		home = snapToRoad(ctx, s.router, home, s.logger)
	}

	direct, err := s.router.DirectRoute(ctx, home, workplace.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to compute direct route for %s: %w", name, err)
	}

	now := time.Now().UTC()
	driver := &domain.Driver{
		ID:        uuid.New().String(),
		Name:      name,
		Home:      home,
		Workplace: workplace,
		MaxDetour: req.MaxDetour,
		MaxRiders: req.MaxRiders,
		CreatedAt: now,
	}
	ride := &domain.Ride{
		ID:               uuid.New().String(),
		DriverID:         driver.ID,
		RiderIDs:         []string{},
		Route:            *direct,
		MatchedGeometry:  direct.Geometry,
		DirectDuration:   direct.Duration,
		DirectDistanceKm: direct.DistanceKm,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Drivers.Create(ctx, driver); err != nil {
			return err
		}
		return repos.Rides.Create(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("driver registered",
		zap.String("driver_id", driver.ID),
		zap.String("workplace", workplace.Name),
		zap.Duration("direct_duration", direct.Duration),
	)

	return &RegisterDriverResult{Driver: driver, Ride: ride}, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driverRepo.GetByID(ctx, driverID)
}

// ListDrivers returns all drivers.
func (s *DriverService) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx)
}

// snapToRoad moves a point onto the nearest road. The raw point is kept when snapping fails.
func snapToRoad(ctx context.Context, router routing.Router, p domain.Point, logger *zap.Logger) domain.Point {
	route, err := router.MatchToRoads(ctx, []domain.Point{p})
	if err != nil || route == nil || len(route.Geometry) == 0 {
		logger.Warn("failed to snap point to road, keeping raw point",
			zap.Stringer("point", p),
			zap.Error(err),
		)
		return p
	}
	return route.Geometry[0]
}
