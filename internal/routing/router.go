// Package routing talks to driving route providers.
package routing

import (
	"context"
	"errors"
	"time"

	"carpool/internal/domain"
	"carpool/internal/metrics"
)

// Provider limits.
const (
	MinOptimizedStops = 2
	MaxOptimizedStops = 12
	MaxMatchPoints    = 100
	MatchRadiusMeters = 50
)

// Operation names used in cache keys and metrics labels.
const (
	OpDirect    = "direct"
	OpOptimized = "optimized"
	OpMatch     = "match"
)

var (
	ErrNoRoute          = errors.New("no route found")
	ErrInvalidWaypoints = errors.New("invalid number of waypoints")
	ErrUpstream         = errors.New("routing provider error")
)

// Router computes driving routes.
type Router interface {
	// Provider returns a short provider name such as "mapbox".
	Provider() string

	// DirectRoute returns the driving route between two points.
	DirectRoute(ctx context.Context, from, to domain.Point) (*domain.Route, error)

	// OptimizedRoute visits every stop, keeping the first as source and the last
	// as destination while reordering the stops in between.
	OptimizedRoute(ctx context.Context, stops []domain.Point) (*domain.Route, error)

	// MatchToRoads snaps a trace onto the road network.
	MatchToRoads(ctx context.Context, points []domain.Point) (*domain.Route, error)
}

// ValidateStops checks the stop count accepted by OptimizedRoute.
func ValidateStops(stops []domain.Point) error {
	if len(stops) < MinOptimizedStops || len(stops) > MaxOptimizedStops {
		return ErrInvalidWaypoints
	}
	return nil
}

// Downsample keeps every n-th point so that at most limit points remain.
func Downsample(points []domain.Point, limit int) []domain.Point {
	if len(points) <= limit {
		return points
	}

	step := len(points)/limit + 1
	out := make([]domain.Point, 0, limit)
	for i := 0; i < len(points) && len(out) < limit; i += step {
		out = append(out, points[i])
	}
	return out
}

// InvertWaypointIndex converts per-input trip positions into the visit order.
// positions[i] is where input i is visited; the result lists input indices by visit.
func InvertWaypointIndex(positions []int) ([]int, error) {
	order := make([]int, len(positions))
	seen := make([]bool, len(positions))
	for i, pos := range positions {
		if pos < 0 || pos >= len(positions) || seen[pos] {
			return nil, errors.New("waypoint positions are not a permutation")
		}
		seen[pos] = true
		order[pos] = i
	}
	return order, nil
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// observe records the outcome of a provider call.
func observe(provider, op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNoRoute):
		outcome = "no_route"
	case err != nil:
		outcome = "error"
	}
	metrics.RoutingRequestsTotal.WithLabelValues(provider, op, outcome).Inc()
	metrics.RoutingRequestDuration.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}
