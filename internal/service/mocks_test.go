package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/routing"
)

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

// Count returns the number of stored drivers.
func (m *MockDriverRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drivers)
}

// ──────────────────────────────────────────────
// MOCK RIDER REPOSITORY
// ──────────────────────────────────────────────

// MockRiderRepository is a mock implementation of RiderRepository.
type MockRiderRepository struct {
	mu     sync.RWMutex
	riders map[string]*domain.Rider

	// Counters for verification
	CreateCallCount     int32
	AssignRideCallCount int32

	// Error injection
	CreateError     error
	AssignRideError error
}

// NewMockRiderRepository creates a new mock rider repository.
func NewMockRiderRepository() *MockRiderRepository {
	return &MockRiderRepository{
		riders: make(map[string]*domain.Rider),
	}
}

// AddRider adds a rider to the mock repository.
func (m *MockRiderRepository) AddRider(rider *domain.Rider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders[rider.ID] = rider
}

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders[rider.ID] = rider
	return nil
}

func (m *MockRiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rider, ok := m.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rider
	return &copy, nil
}

func (m *MockRiderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Rider, 0, len(m.riders))
	for _, r := range m.riders {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRiderRepository) GetByWorkplace(ctx context.Context, workplace string) ([]*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Rider
	for _, r := range m.riders {
		if r.Workplace.Name == workplace {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRiderRepository) AssignRide(ctx context.Context, riderID, rideID string) error {
	atomic.AddInt32(&m.AssignRideCallCount, 1)
	if m.AssignRideError != nil {
		return m.AssignRideError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rider, ok := m.riders[riderID]
	if !ok {
		return repository.ErrNotFound
	}
	if rider.RideID != "" && rider.RideID != rideID {
		return repository.ErrConflict
	}
	rider.RideID = rideID
	return nil
}

func (m *MockRiderRepository) UnassignRide(ctx context.Context, riderID, rideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rider, ok := m.riders[riderID]
	if !ok {
		return repository.ErrNotFound
	}
	if rider.RideID != rideID {
		return repository.ErrConflict
	}
	rider.RideID = ""
	return nil
}

// GetRider returns rider for test assertions.
func (m *MockRiderRepository) GetRider(id string) *domain.Rider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.riders[id]
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = copyRide(ride)
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = copyRide(ride)
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyRide(ride), nil
}

func (m *MockRideRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.DriverID == driverID {
			return copyRide(r), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rides[ride.ID] = copyRide(ride)
	return nil
}

// GetRide returns ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// Count returns the number of stored rides.
func (m *MockRideRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

func copyRide(r *domain.Ride) *domain.Ride {
	copy := *r
	copy.RiderIDs = append([]string(nil), r.RiderIDs...)
	return &copy
}

// ──────────────────────────────────────────────
// MOCK TRANSACTOR
// ──────────────────────────────────────────────

// MockTransactor runs the callback against the mock repositories.
type MockTransactor struct {
	repos repository.Repositories

	WithinTxCallCount int32
	BeginError        error
}

// NewMockTransactor creates a transactor over the given mocks.
func NewMockTransactor(drivers repository.DriverRepository, riders repository.RiderRepository, rides repository.RideRepository) *MockTransactor {
	return &MockTransactor{
		repos: repository.Repositories{Drivers: drivers, Riders: riders, Rides: rides},
	}
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	atomic.AddInt32(&m.WithinTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(m.repos)
}

// ──────────────────────────────────────────────
// STUB ROUTER
// ──────────────────────────────────────────────

// StubRouter drives at one kilometre per minute along straight lines between
// stops in the requested order.
type StubRouter struct {
	DirectCallCount    int32
	OptimizedCallCount int32
	MatchCallCount     int32

	// Error injection
	DirectError    error
	OptimizedError error
	MatchError     error

	// FailFor makes OptimizedRoute fail whenever this point is among the stops.
	FailFor *domain.Point

	// Snap overrides the first matched point when set.
	Snap *domain.Point

	// BeforeOptimized runs at the start of every OptimizedRoute call.
	BeforeOptimized func(stops []domain.Point)
}

func (s *StubRouter) Provider() string { return "stub" }

func (s *StubRouter) DirectRoute(ctx context.Context, from, to domain.Point) (*domain.Route, error) {
	atomic.AddInt32(&s.DirectCallCount, 1)
	if s.DirectError != nil {
		return nil, s.DirectError
	}
	return straightRoute([]domain.Point{from, to}), nil
}

func (s *StubRouter) OptimizedRoute(ctx context.Context, stops []domain.Point) (*domain.Route, error) {
	atomic.AddInt32(&s.OptimizedCallCount, 1)
	if s.BeforeOptimized != nil {
		s.BeforeOptimized(stops)
	}
	if s.OptimizedError != nil {
		return nil, s.OptimizedError
	}
	if err := routing.ValidateStops(stops); err != nil {
		return nil, err
	}
	if s.FailFor != nil {
		for _, p := range stops {
			if p == *s.FailFor {
				return nil, routing.ErrNoRoute
			}
		}
	}
	return straightRoute(stops), nil
}

func (s *StubRouter) MatchToRoads(ctx context.Context, points []domain.Point) (*domain.Route, error) {
	atomic.AddInt32(&s.MatchCallCount, 1)
	if s.MatchError != nil {
		return nil, s.MatchError
	}
	geometry := append([]domain.Point(nil), points...)
	if s.Snap != nil && len(geometry) > 0 {
		geometry[0] = *s.Snap
	}
	return &domain.Route{Geometry: geometry}, nil
}

func straightRoute(stops []domain.Point) *domain.Route {
	route := &domain.Route{Geometry: append([]domain.Point(nil), stops...)}
	for i := range stops {
		route.StopOrder = append(route.StopOrder, i)
		if i == 0 {
			continue
		}
		km := geo.HaversineKm(stops[i-1], stops[i])
		leg := time.Duration(km * float64(time.Minute))
		route.DistanceKm += km
		route.Duration += leg
		route.LegDurations = append(route.LegDurations, leg)
	}
	return route
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface. Locks are
// keyed "ride:<id>" and "rider:<id>" and hold the owner's token.
type MockLockStore struct {
	mu     sync.Mutex
	locks  map[string]string
	tokens int

	AcquireCallCount int32
	ReleaseCallCount int32

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]string)}
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (string, bool, error) {
	return m.acquire("ride:" + rideID)
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID, token string) error {
	return m.release("ride:"+rideID, token)
}

func (m *MockLockStore) AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (string, bool, error) {
	return m.acquire("rider:" + riderID)
}

func (m *MockLockStore) ReleaseRiderLock(ctx context.Context, riderID, token string) error {
	return m.release("rider:"+riderID, token)
}

func (m *MockLockStore) acquire(key string) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[key]; held {
		return "", false, nil
	}
	m.tokens++
	token := fmt.Sprintf("token-%d", m.tokens)
	m.locks[key] = token
	return token, true, nil
}

func (m *MockLockStore) release(key, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] == token {
		delete(m.locks, key)
	}
	return nil
}

// Hold marks a lock as held by someone else, replacing any current holder.
func (m *MockLockStore) Hold(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[key] = "other-holder"
}

// IsLocked reports whether the lock is held.
func (m *MockLockStore) IsLocked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.locks[key]
	return held
}

// Holder returns the token currently holding the lock.
func (m *MockLockStore) Holder(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[key]
}

// MockAttemptStore is a mock implementation of AttemptStoreInterface.
type MockAttemptStore struct {
	mu       sync.Mutex
	failures map[string][]string

	RecordError error
}

// NewMockAttemptStore creates a new mock attempt store.
func NewMockAttemptStore() *MockAttemptStore {
	return &MockAttemptStore{failures: make(map[string][]string)}
}

func (m *MockAttemptStore) RecordFailure(ctx context.Context, rideID, message string) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[rideID] = append(m.failures[rideID], message)
	return nil
}

func (m *MockAttemptStore) PopFailures(ctx context.Context, rideID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	failures := m.failures[rideID]
	delete(m.failures, rideID)
	return failures, nil
}

// Failures returns recorded failures without clearing them.
func (m *MockAttemptStore) Failures(rideID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.failures[rideID]...)
}

// MockLocationStore is a mock implementation of RiderLocationStoreInterface.
type MockLocationStore struct {
	mu    sync.RWMutex
	homes map[string]map[string]domain.Point

	AddCallCount  int32
	FindCallCount int32

	AddError  error
	FindError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{homes: make(map[string]map[string]domain.Point)}
}

func (m *MockLocationStore) AddRider(ctx context.Context, workplace, riderID string, home domain.Point) error {
	atomic.AddInt32(&m.AddCallCount, 1)
	if m.AddError != nil {
		return m.AddError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.homes[workplace] == nil {
		m.homes[workplace] = make(map[string]domain.Point)
	}
	m.homes[workplace][riderID] = home
	return nil
}

func (m *MockLocationStore) FindNearbyRiders(ctx context.Context, workplace string, center domain.Point, radiusKm float64) ([]redis.RiderLocation, error) {
	atomic.AddInt32(&m.FindCallCount, 1)
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []redis.RiderLocation
	for id, home := range m.homes[workplace] {
		if geo.HaversineKm(center, home) <= radiusKm {
			result = append(result, redis.RiderLocation{RiderID: id, Home: home})
		}
	}
	return result, nil
}

var errInjected = errors.New("injected failure")

// Ensure mocks implement interfaces.
var (
	_ repository.DriverRepository       = (*MockDriverRepository)(nil)
	_ repository.RiderRepository        = (*MockRiderRepository)(nil)
	_ repository.RideRepository         = (*MockRideRepository)(nil)
	_ repository.Transactor             = (*MockTransactor)(nil)
	_ routing.Router                    = (*StubRouter)(nil)
	_ redis.LockStoreInterface          = (*MockLockStore)(nil)
	_ redis.AttemptStoreInterface       = (*MockAttemptStore)(nil)
	_ redis.RiderLocationStoreInterface = (*MockLocationStore)(nil)
)
