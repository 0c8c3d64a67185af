package routing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"carpool/internal/domain"
	"carpool/internal/metrics"
)

// RouteCache stores routes by key. Get returns nil, nil on a miss.
type RouteCache interface {
	GetRoute(ctx context.Context, key string) (*domain.Route, error)
	SetRoute(ctx context.Context, key string, route *domain.Route, ttl time.Duration) error
}

// CachedRouter memoizes another Router's results.
type CachedRouter struct {
	next   Router
	cache  RouteCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRouter creates a new CachedRouter.
func NewCachedRouter(next Router, cache RouteCache, ttl time.Duration, logger *zap.Logger) *CachedRouter {
	return &CachedRouter{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Provider implements Router.
func (r *CachedRouter) Provider() string {
	return r.next.Provider()
}

// DirectRoute implements Router.
func (r *CachedRouter) DirectRoute(ctx context.Context, from, to domain.Point) (*domain.Route, error) {
	return r.cached(ctx, OpDirect, []domain.Point{from, to}, func() (*domain.Route, error) {
		return r.next.DirectRoute(ctx, from, to)
	})
}

// OptimizedRoute implements Router.
func (r *CachedRouter) OptimizedRoute(ctx context.Context, stops []domain.Point) (*domain.Route, error) {
	if err := ValidateStops(stops); err != nil {
		return nil, err
	}
	return r.cached(ctx, OpOptimized, stops, func() (*domain.Route, error) {
		return r.next.OptimizedRoute(ctx, stops)
	})
}

// MatchToRoads implements Router.
func (r *CachedRouter) MatchToRoads(ctx context.Context, points []domain.Point) (*domain.Route, error) {
	if len(points) == 0 {
		return nil, ErrInvalidWaypoints
	}
	return r.cached(ctx, OpMatch, points, func() (*domain.Route, error) {
		return r.next.MatchToRoads(ctx, points)
	})
}

func (r *CachedRouter) cached(ctx context.Context, op string, points []domain.Point, load func() (*domain.Route, error)) (*domain.Route, error) {
	key := CacheKey(r.next.Provider(), op, points)

	route, err := r.cache.GetRoute(ctx, key)
	switch {
	case err != nil:
		metrics.RouteCacheTotal.WithLabelValues("error").Inc()
		r.logger.Warn("route cache read failed", zap.String("operation", op), zap.Error(err))
	case route != nil:
		metrics.RouteCacheTotal.WithLabelValues("hit").Inc()
		return route, nil
	default:
		metrics.RouteCacheTotal.WithLabelValues("miss").Inc()
	}

	route, err = load()
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetRoute(ctx, key, route, r.ttl); err != nil {
		metrics.RouteCacheTotal.WithLabelValues("error").Inc()
		r.logger.Warn("route cache write failed", zap.String("operation", op), zap.Error(err))
	}
	return route, nil
}

// CacheKey identifies a routing request by provider, operation and coordinates.
func CacheKey(provider, op string, points []domain.Point) string {
	var b strings.Builder
	b.WriteString(provider)
	b.WriteByte(':')
	b.WriteString(op)
	b.WriteByte(':')
	for i, p := range points {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatFloat(p.Lat, 'f', 6, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Lng, 'f', 6, 64))
	}
	return b.String()
}
