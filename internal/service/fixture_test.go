package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"carpool/internal/config"
	"carpool/internal/domain"
	"carpool/internal/service"
)

var (
	driverHome    = domain.Point{Lat: 48.75, Lng: 9.20}
	onRouteHome   = domain.Point{Lat: 48.79075, Lng: 9.25475}
	nearRouteHome = domain.Point{Lat: 48.80, Lng: 9.22}
	farHome       = domain.Point{Lat: 48.65, Lng: 8.95}
)

type fixture struct {
	drivers   *MockDriverRepository
	riders    *MockRiderRepository
	rides     *MockRideRepository
	tx        *MockTransactor
	router    *StubRouter
	locks     *MockLockStore
	attempts  *MockAttemptStore
	locations *MockLocationStore
	catalog   *service.WorkplaceCatalog

	driverSvc *service.DriverService
	riderSvc  *service.RiderService
	rideSvc   *service.RideService
	matchSvc  *service.MatchingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithMatching(t, service.MatchingConfig{Concurrency: 4})
}

func newFixtureWithMatching(t *testing.T, cfg service.MatchingConfig) *fixture {
	t.Helper()

	logger := zap.NewNop()
	f := &fixture{
		drivers:   NewMockDriverRepository(),
		riders:    NewMockRiderRepository(),
		rides:     NewMockRideRepository(),
		router:    &StubRouter{},
		locks:     NewMockLockStore(),
		attempts:  NewMockAttemptStore(),
		locations: NewMockLocationStore(),
		catalog:   service.NewWorkplaceCatalog(config.DefaultWorkplaces()),
	}
	f.tx = NewMockTransactor(f.drivers, f.riders, f.rides)

	scorer, err := service.NewScorer(service.DefaultWeights(), service.DefaultNormalization())
	if err != nil {
		t.Fatalf("failed to create scorer: %v", err)
	}

	f.driverSvc = service.NewDriverService(f.tx, f.drivers, f.router, f.catalog, false, logger)
	f.riderSvc = service.NewRiderService(f.riders, f.locations, f.router, f.catalog, false, logger)
	f.rideSvc = service.NewRideService(f.tx, f.drivers, f.riders, f.rides, f.router, f.locks, f.attempts, logger)
	f.matchSvc = service.NewMatchingService(f.drivers, f.riders, f.rides, f.router, f.locations, scorer, cfg, logger)
	return f
}

func (f *fixture) registerDriver(t *testing.T, name, workplace string, maxDetour time.Duration, maxRiders int) (*domain.Driver, *domain.Ride) {
	t.Helper()
	res, err := f.driverSvc.RegisterDriver(context.Background(), service.RegisterDriverRequest{
		Name:      name,
		Home:      driverHome,
		Workplace: workplace,
		MaxDetour: maxDetour,
		MaxRiders: maxRiders,
	})
	if err != nil {
		t.Fatalf("failed to register driver %s: %v", name, err)
	}
	return res.Driver, res.Ride
}

func (f *fixture) registerRider(t *testing.T, name, workplace string, home domain.Point) *domain.Rider {
	t.Helper()
	rider, err := f.riderSvc.RegisterRider(context.Background(), service.RegisterRiderRequest{
		Name:      name,
		Home:      home,
		Workplace: workplace,
	})
	if err != nil {
		t.Fatalf("failed to register rider %s: %v", name, err)
	}
	return rider
}
