package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"carpool/internal/domain"
)

const (
	mapboxDirectionsPath = "/directions/v5/mapbox/driving-traffic/"
	mapboxOptimizedPath  = "/optimized-trips/v1/mapbox/driving-traffic/"
	mapboxMatchingPath   = "/matching/v5/mapbox/driving/"
)

// MapboxClient implements Router against the Mapbox HTTP APIs.
type MapboxClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMapboxClient creates a new MapboxClient.
func NewMapboxClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *MapboxClient {
	return &MapboxClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type mapboxGeometry struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type mapboxLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type mapboxRoute struct {
	Distance float64        `json:"distance"` // meters
	Duration float64        `json:"duration"` // seconds
	Geometry mapboxGeometry `json:"geometry"`
	Legs     []mapboxLeg    `json:"legs"`
}

type mapboxWaypoint struct {
	WaypointIndex int `json:"waypoint_index"`
	TripsIndex    int `json:"trips_index"`
}

type mapboxResponse struct {
	Code      string           `json:"code"`
	Message   string           `json:"message"`
	Routes    []mapboxRoute    `json:"routes"`
	Trips     []mapboxRoute    `json:"trips"`
	Matchings []mapboxRoute    `json:"matchings"`
	Waypoints []mapboxWaypoint `json:"waypoints"`
}

// Provider implements Router.
func (c *MapboxClient) Provider() string {
	return "mapbox"
}

// DirectRoute implements Router.
func (c *MapboxClient) DirectRoute(ctx context.Context, from, to domain.Point) (_ *domain.Route, err error) {
	start := time.Now()
	defer func() { observe(c.Provider(), OpDirect, start, err) }()

	params := url.Values{}
	params.Set("geometries", "geojson")

	resp, err := c.get(ctx, OpDirect, mapboxDirectionsPath, []domain.Point{from, to}, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, fmt.Errorf("directions: %w", ErrNoRoute)
	}

	route := convertMapboxRoute(resp.Routes[0])
	route.StopOrder = identityOrder(2)
	return route, nil
}

// OptimizedRoute implements Router.
func (c *MapboxClient) OptimizedRoute(ctx context.Context, stops []domain.Point) (_ *domain.Route, err error) {
	if err := ValidateStops(stops); err != nil {
		return nil, fmt.Errorf("optimized route with %d stops: %w", len(stops), err)
	}

	start := time.Now()
	defer func() { observe(c.Provider(), OpOptimized, start, err) }()

	params := url.Values{}
	params.Set("geometries", "geojson")
	params.Set("source", "first")
	params.Set("destination", "last")
	params.Set("roundtrip", "false")

	resp, err := c.get(ctx, OpOptimized, mapboxOptimizedPath, stops, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Trips) == 0 {
		return nil, fmt.Errorf("optimized trips: %w", ErrNoRoute)
	}
	if len(resp.Waypoints) != len(stops) {
		return nil, fmt.Errorf("optimized trips returned %d waypoints for %d stops: %w",
			len(resp.Waypoints), len(stops), ErrUpstream)
	}

	positions := make([]int, len(resp.Waypoints))
	for i, wp := range resp.Waypoints {
		positions[i] = wp.WaypointIndex
	}
	order, err := InvertWaypointIndex(positions)
	if err != nil {
		return nil, fmt.Errorf("optimized trips: %v: %w", err, ErrUpstream)
	}

	route := convertMapboxRoute(resp.Trips[0])
	route.StopOrder = order
	return route, nil
}

// MatchToRoads implements Router.
func (c *MapboxClient) MatchToRoads(ctx context.Context, points []domain.Point) (_ *domain.Route, err error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("map matching without points: %w", ErrInvalidWaypoints)
	}

	start := time.Now()
	defer func() { observe(c.Provider(), OpMatch, start, err) }()

	// The matching API needs a trace of at least two points
	if len(points) == 1 {
		points = []domain.Point{points[0], points[0]}
	}
	if len(points) > MaxMatchPoints {
		c.logger.Debug("downsampling trace for map matching",
			zap.Int("points", len(points)),
			zap.Int("max", MaxMatchPoints),
		)
		points = Downsample(points, MaxMatchPoints)
	}

	radiuses := make([]string, len(points))
	for i := range radiuses {
		radiuses[i] = strconv.Itoa(MatchRadiusMeters)
	}

	params := url.Values{}
	params.Set("geometries", "geojson")
	params.Set("steps", "true")
	params.Set("radiuses", strings.Join(radiuses, ";"))

	resp, err := c.get(ctx, OpMatch, mapboxMatchingPath, points, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Matchings) == 0 {
		return nil, fmt.Errorf("map matching: %w", ErrNoRoute)
	}

	return convertMapboxRoute(resp.Matchings[0]), nil
}

func (c *MapboxClient) get(ctx context.Context, op, path string, points []domain.Point, params url.Values) (*mapboxResponse, error) {
	params.Set("access_token", c.token)
	endpoint := c.baseURL + path + formatCoordinates(points) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("routing request failed",
			zap.String("provider", c.Provider()),
			zap.String("operation", op),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s request: %v: %w", op, err, ErrUpstream)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %v: %w", op, err, ErrUpstream)
	}

	var decoded mapboxResponse
	// Error bodies are JSON too; decoding failures only matter on success
	jsonErr := json.Unmarshal(body, &decoded)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.Warn("routing provider returned error status",
			zap.String("provider", c.Provider()),
			zap.String("operation", op),
			zap.Int("status", res.StatusCode),
			zap.String("message", decoded.Message),
		)
		if isMapboxNoRoute(decoded.Code) {
			return nil, fmt.Errorf("%s: %s: %w", op, decoded.Code, ErrNoRoute)
		}
		return nil, fmt.Errorf("%s returned status %d %s: %w", op, res.StatusCode, decoded.Message, ErrUpstream)
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("decode %s response: %v: %w", op, jsonErr, ErrUpstream)
	}

	if decoded.Code != "" && decoded.Code != "Ok" {
		c.logger.Warn("routing provider returned error code",
			zap.String("provider", c.Provider()),
			zap.String("operation", op),
			zap.String("code", decoded.Code),
			zap.String("message", decoded.Message),
		)
		if isMapboxNoRoute(decoded.Code) {
			return nil, fmt.Errorf("%s: %s: %w", op, decoded.Code, ErrNoRoute)
		}
		return nil, fmt.Errorf("%s: %s %s: %w", op, decoded.Code, decoded.Message, ErrUpstream)
	}

	return &decoded, nil
}

func isMapboxNoRoute(code string) bool {
	switch code {
	case "NoRoute", "NoTrips", "NoMatch", "NoSegment":
		return true
	}
	return false
}

// formatCoordinates renders points as lon,lat pairs separated by semicolons.
func formatCoordinates(points []domain.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
	}
	return strings.Join(parts, ";")
}

func convertMapboxRoute(r mapboxRoute) *domain.Route {
	geometry := make([]domain.Point, 0, len(r.Geometry.Coordinates))
	for _, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		geometry = append(geometry, domain.Point{Lat: c[1], Lng: c[0]})
	}

	legs := make([]time.Duration, len(r.Legs))
	for i, leg := range r.Legs {
		legs[i] = seconds(leg.Duration)
	}

	return &domain.Route{
		DistanceKm:   r.Distance / 1000,
		Duration:     seconds(r.Duration),
		Geometry:     geometry,
		LegDurations: legs,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
