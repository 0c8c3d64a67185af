package routing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carpool/internal/domain"
)

// stubRouter returns a fixed route and counts calls.
type stubRouter struct {
	calls atomic.Int32
	route *domain.Route
	err   error
}

func (s *stubRouter) Provider() string { return "stub" }

func (s *stubRouter) DirectRoute(_ context.Context, _, _ domain.Point) (*domain.Route, error) {
	s.calls.Add(1)
	return s.route, s.err
}

func (s *stubRouter) OptimizedRoute(_ context.Context, _ []domain.Point) (*domain.Route, error) {
	s.calls.Add(1)
	return s.route, s.err
}

func (s *stubRouter) MatchToRoads(_ context.Context, _ []domain.Point) (*domain.Route, error) {
	s.calls.Add(1)
	return s.route, s.err
}

// memoryRouteCache stores JSON-encoded routes the same way the redis cache does.
type memoryRouteCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newMemoryRouteCache() *memoryRouteCache {
	return &memoryRouteCache{data: make(map[string][]byte)}
}

func (m *memoryRouteCache) GetRoute(_ context.Context, key string) (*domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	var route domain.Route
	if err := json.Unmarshal(raw, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

func (m *memoryRouteCache) SetRoute(_ context.Context, key string, route *domain.Route, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(route)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.lastTTL = ttl
	return nil
}

func sampleRoute() *domain.Route {
	return &domain.Route{
		DistanceKm:   12.5,
		Duration:     20 * time.Minute,
		Geometry:     []domain.Point{home, workplace},
		StopOrder:    []int{0, 1},
		LegDurations: []time.Duration{20 * time.Minute},
	}
}

func TestCachedRouter_ReturnsIdenticalRouteOnHit(t *testing.T) {
	next := &stubRouter{route: sampleRoute()}
	cache := newMemoryRouteCache()
	router := NewCachedRouter(next, cache, time.Hour, zap.NewNop())

	first, err := router.DirectRoute(context.Background(), home, workplace)
	require.NoError(t, err)
	second, err := router.DirectRoute(context.Background(), home, workplace)
	require.NoError(t, err)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, time.Hour, cache.lastTTL)
}

func TestCachedRouter_KeysByOperationAndStops(t *testing.T) {
	next := &stubRouter{route: sampleRoute()}
	router := NewCachedRouter(next, newMemoryRouteCache(), time.Hour, zap.NewNop())
	ctx := context.Background()

	_, _ = router.DirectRoute(ctx, home, workplace)
	_, _ = router.OptimizedRoute(ctx, []domain.Point{home, workplace})
	_, _ = router.OptimizedRoute(ctx, []domain.Point{home, riderA, workplace})
	_, _ = router.OptimizedRoute(ctx, []domain.Point{home, riderA, workplace})
	_, _ = router.MatchToRoads(ctx, []domain.Point{home, workplace})

	assert.Equal(t, int32(4), next.calls.Load())
}

func TestCachedRouter_ErrorsAreNotCached(t *testing.T) {
	next := &stubRouter{err: ErrNoRoute}
	cache := newMemoryRouteCache()
	router := NewCachedRouter(next, cache, time.Hour, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := router.DirectRoute(context.Background(), home, workplace)
		assert.ErrorIs(t, err, ErrNoRoute)
	}
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Empty(t, cache.data)
}

func TestCachedRouter_CacheFailuresAreBypassed(t *testing.T) {
	next := &stubRouter{route: sampleRoute()}
	cache := newMemoryRouteCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	router := NewCachedRouter(next, cache, time.Hour, zap.NewNop())

	route, err := router.DirectRoute(context.Background(), home, workplace)
	require.NoError(t, err)
	assert.Equal(t, sampleRoute(), route)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedRouter_InvalidStopsSkipProvider(t *testing.T) {
	next := &stubRouter{route: sampleRoute()}
	router := NewCachedRouter(next, newMemoryRouteCache(), time.Hour, zap.NewNop())

	_, err := router.OptimizedRoute(context.Background(), []domain.Point{home})
	assert.ErrorIs(t, err, ErrInvalidWaypoints)
	_, err = router.MatchToRoads(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidWaypoints)
	assert.Equal(t, int32(0), next.calls.Load())
	assert.Equal(t, "stub", router.Provider())
}
