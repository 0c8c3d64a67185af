package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/routing"
)

// RiderService handles rider registration and lookup.
type RiderService struct {
	riderRepo     repository.RiderRepository
	locationStore redis.RiderLocationStoreInterface
	router        routing.Router
	workplaces    *WorkplaceCatalog
	snapHomes     bool
	logger        *zap.Logger
}

// NewRiderService creates a new RiderService. locationStore may be nil.
func NewRiderService(
	riderRepo repository.RiderRepository,
	locationStore redis.RiderLocationStoreInterface,
	router routing.Router,
	workplaces *WorkplaceCatalog,
	snapHomes bool,
	logger *zap.Logger,
) *RiderService {
	return &RiderService{
		riderRepo:     riderRepo,
		locationStore: locationStore,
		router:        router,
		workplaces:    workplaces,
		snapHomes:     snapHomes,
		logger:        logger,
	}
}

// RegisterRiderRequest contains the parameters for registering a rider.
type RegisterRiderRequest struct {
	Name      string
	Home      domain.Point
	Workplace string
}

// RegisterRider stores a rider along with their own direct commute.
func (s *RiderService) RegisterRider(ctx context.Context, req RegisterRiderRequest) (*domain.Rider, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if !req.Home.Valid() {
		return nil, ErrInvalidLocation
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

	rider := &domain.Rider{
		ID:               uuid.New().String(),
		Name:             name,
		Home:             home,
		Workplace:        workplace,
		DirectDuration:   direct.Duration,
		DirectDistanceKm: direct.DistanceKm,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.riderRepo.Create(ctx, rider); err != nil {
		return nil, err
	}

	// The geo index only narrows candidate search; the rider is stored either way
	if s.locationStore != nil {
		if err := s.locationStore.AddRider(ctx, workplace.Name, rider.ID, home); err != nil {
			s.logger.Warn("failed to index rider home", zap.String("rider_id", rider.ID), zap.Error(err))
		}
	}

	s.logger.Info("rider registered",
		zap.String("rider_id", rider.ID),
		zap.String("workplace", workplace.Name),
	)

	return rider, nil
}

// GetRider retrieves a rider by ID.
func (s *RiderService) GetRider(ctx context.Context, riderID string) (*domain.Rider, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.riderRepo.GetByID(ctx, riderID)
}

// ListRiders returns all riders.
func (s *RiderService) ListRiders(ctx context.Context) ([]*domain.Rider, error) {
	return s.riderRepo.GetAll(ctx)
}
