package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"carpool/internal/domain"
	"carpool/internal/geo"
)

// GoogleClient implements Router with the Google Maps Directions and Roads APIs.
type GoogleClient struct {
	client *maps.Client
	logger *zap.Logger
}

// NewGoogleClient creates a new GoogleClient. baseURL may be empty.
func NewGoogleClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) (*GoogleClient, error) {
	opts := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleClient{client: client, logger: logger}, nil
}

// Provider implements Router.
func (c *GoogleClient) Provider() string {
	return "google"
}

// DirectRoute implements Router.
func (c *GoogleClient) DirectRoute(ctx context.Context, from, to domain.Point) (_ *domain.Route, err error) {
	start := time.Now()
	defer func() { observe(c.Provider(), OpDirect, start, err) }()

	route, err := c.directions(ctx, OpDirect, []domain.Point{from, to})
	if err != nil {
		return nil, err
	}
	route.StopOrder = identityOrder(2)
	return route, nil
}

// OptimizedRoute implements Router.
func (c *GoogleClient) OptimizedRoute(ctx context.Context, stops []domain.Point) (_ *domain.Route, err error) {
	if err := ValidateStops(stops); err != nil {
		return nil, fmt.Errorf("optimized route with %d stops: %w", len(stops), err)
	}

	start := time.Now()
	defer func() { observe(c.Provider(), OpOptimized, start, err) }()

	return c.directions(ctx, OpOptimized, stops)
}

// MatchToRoads implements Router.
func (c *GoogleClient) MatchToRoads(ctx context.Context, points []domain.Point) (_ *domain.Route, err error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("map matching without points: %w", ErrInvalidWaypoints)
	}

	start := time.Now()
	defer func() { observe(c.Provider(), OpMatch, start, err) }()

	points = Downsample(points, MaxMatchPoints)
	path := make([]maps.LatLng, len(points))
	for i, p := range points {
		path[i] = maps.LatLng{Lat: p.Lat, Lng: p.Lng}
	}

	resp, err := c.client.SnapToRoad(ctx, &maps.SnapToRoadRequest{Path: path, Interpolate: true})
	if err != nil {
		c.logUpstream(OpMatch, err)
		return nil, fmt.Errorf("snap to roads: %v: %w", err, ErrUpstream)
	}
	if len(resp.SnappedPoints) == 0 {
		return nil, fmt.Errorf("snap to roads: %w", ErrNoRoute)
	}

	geometry := make([]domain.Point, len(resp.SnappedPoints))
	for i, sp := range resp.SnappedPoints {
		geometry[i] = domain.Point{Lat: sp.Location.Lat, Lng: sp.Location.Lng}
	}

	// Roads API reports no travel time; distance follows the snapped path
	return &domain.Route{
		DistanceKm: geo.PolylineLengthKm(geometry),
		Geometry:   geometry,
	}, nil
}

func (c *GoogleClient) directions(ctx context.Context, op string, stops []domain.Point) (*domain.Route, error) {
	req := &maps.DirectionsRequest{
		Origin:      latLngString(stops[0]),
		Destination: latLngString(stops[len(stops)-1]),
		Mode:        maps.TravelModeDriving,
	}
	if len(stops) > 2 {
		req.Optimize = true
		for _, p := range stops[1 : len(stops)-1] {
			req.Waypoints = append(req.Waypoints, latLngString(p))
		}
	}

	routes, _, err := c.client.Directions(ctx, req)
	if err != nil {
		c.logUpstream(op, err)
		return nil, fmt.Errorf("directions: %v: %w", err, ErrUpstream)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, fmt.Errorf("directions: %w", ErrNoRoute)
	}

	r := routes[0]
	route := &domain.Route{
		LegDurations: make([]time.Duration, len(r.Legs)),
	}
	var meters int
	for i, leg := range r.Legs {
		meters += leg.Meters
		route.Duration += leg.Duration
		route.LegDurations[i] = leg.Duration
	}
	route.DistanceKm = float64(meters) / 1000

	path, err := r.OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode overview polyline: %v: %w", err, ErrUpstream)
	}
	route.Geometry = make([]domain.Point, len(path))
	for i, ll := range path {
		route.Geometry[i] = domain.Point{Lat: ll.Lat, Lng: ll.Lng}
	}

	route.StopOrder, err = stopOrderFromWaypointOrder(r.WaypointOrder, len(stops))
	if err != nil {
		return nil, fmt.Errorf("directions: %v: %w", err, ErrUpstream)
	}
	return route, nil
}

// stopOrderFromWaypointOrder expands the order of intermediate waypoints into
// the visit order of all stops, origin and destination included.
func stopOrderFromWaypointOrder(waypointOrder []int, stops int) ([]int, error) {
	if len(waypointOrder) == 0 {
		return identityOrder(stops), nil
	}
	if len(waypointOrder) != stops-2 {
		return nil, fmt.Errorf("waypoint order has %d entries for %d waypoints", len(waypointOrder), stops-2)
	}

	seen := make([]bool, len(waypointOrder))
	for _, wp := range waypointOrder {
		if wp < 0 || wp >= len(waypointOrder) || seen[wp] {
			return nil, errors.New("waypoint order is not a permutation")
		}
		seen[wp] = true
	}

	order := make([]int, 0, stops)
	order = append(order, 0)
	for _, wp := range waypointOrder {
		order = append(order, wp+1)
	}
	return append(order, stops-1), nil
}

func (c *GoogleClient) logUpstream(op string, err error) {
	c.logger.Warn("routing request failed",
		zap.String("provider", c.Provider()),
		zap.String("operation", op),
		zap.Error(err),
	)
}

func latLngString(p domain.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}
