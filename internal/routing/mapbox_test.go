package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carpool/internal/domain"
)

var (
	home      = domain.Point{Lat: 48.7000, Lng: 9.1000}
	riderA    = domain.Point{Lat: 48.7500, Lng: 9.1500}
	riderB    = domain.Point{Lat: 48.7200, Lng: 9.2000}
	workplace = domain.Point{Lat: 48.8315, Lng: 9.3095}
)

func newMapboxTestServer(t *testing.T, handler http.HandlerFunc) *MapboxClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMapboxClient(srv.URL, "pk.test", 5*time.Second, zap.NewNop())
}

func TestMapboxClient_DirectRoute(t *testing.T) {
	var gotPath, gotQuery string
	client := newMapboxTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"routes": [{
				"distance": 12500,
				"duration": 1200,
				"geometry": {"type": "LineString", "coordinates": [[9.1, 48.7], [9.2, 48.75], [9.3095, 48.8315]]},
				"legs": [{"distance": 12500, "duration": 1200}]
			}]
		}`))
	})

	route, err := client.DirectRoute(context.Background(), home, workplace)
	require.NoError(t, err)

	assert.Equal(t, mapboxDirectionsPath+"9.100000,48.700000;9.309500,48.831500", gotPath)
	assert.Contains(t, gotQuery, "geometries=geojson")
	assert.Contains(t, gotQuery, "access_token=pk.test")

	assert.InDelta(t, 12.5, route.DistanceKm, 1e-9)
	assert.Equal(t, 20*time.Minute, route.Duration)
	require.Len(t, route.Geometry, 3)
	assert.Equal(t, domain.Point{Lat: 48.7, Lng: 9.1}, route.Geometry[0])
	assert.Equal(t, []int{0, 1}, route.StopOrder)
	assert.Equal(t, []time.Duration{20 * time.Minute}, route.LegDurations)
}

func TestMapboxClient_OptimizedRoute(t *testing.T) {
	var gotQuery string
	client := newMapboxTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.True(t, strings.HasPrefix(r.URL.Path, mapboxOptimizedPath))
		// Input 1 (riderA) is visited third, input 2 (riderB) second
		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"waypoints": [
				{"waypoint_index": 0, "trips_index": 0},
				{"waypoint_index": 2, "trips_index": 0},
				{"waypoint_index": 1, "trips_index": 0},
				{"waypoint_index": 3, "trips_index": 0}
			],
			"trips": [{
				"distance": 20000,
				"duration": 1800,
				"geometry": {"coordinates": [[9.1, 48.7], [9.2, 48.72], [9.15, 48.75], [9.3095, 48.8315]]},
				"legs": [{"duration": 600}, {"duration": 540}, {"duration": 660}]
			}]
		}`))
	})

	route, err := client.OptimizedRoute(context.Background(), []domain.Point{home, riderA, riderB, workplace})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "source=first")
	assert.Contains(t, gotQuery, "destination=last")
	assert.Contains(t, gotQuery, "roundtrip=false")
	assert.Equal(t, []int{0, 2, 1, 3}, route.StopOrder)
	assert.Equal(t, 30*time.Minute, route.Duration)
	assert.Len(t, route.LegDurations, 3)
	assert.Equal(t, 9*time.Minute, route.LegDurations[1])
}

func TestMapboxClient_OptimizedRoute_InvalidStops(t *testing.T) {
	var calls atomic.Int32
	client := newMapboxTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.OptimizedRoute(context.Background(), []domain.Point{home})
	assert.ErrorIs(t, err, ErrInvalidWaypoints)

	_, err = client.OptimizedRoute(context.Background(), make([]domain.Point, 13))
	assert.ErrorIs(t, err, ErrInvalidWaypoints)

	assert.Equal(t, int32(0), calls.Load(), "invalid stops must not reach the provider")
}

func TestMapboxClient_OptimizedRoute_WaypointMismatch(t *testing.T) {
	client := newMapboxTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"waypoints": [{"waypoint_index": 0}, {"waypoint_index": 1}],
			"trips": [{"distance": 1, "duration": 1, "geometry": {"coordinates": []}}]
		}`))
	})

	_, err := client.OptimizedRoute(context.Background(), []domain.Point{home, riderA, workplace})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestMapboxClient_MatchToRoads(t *testing.T) {
	var coords, radiuses string
	client := newMapboxTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		coords = strings.TrimPrefix(r.URL.Path, mapboxMatchingPath)
		radiuses = r.URL.Query().Get("radiuses")
		_, _ = w.Write([]byte(`{
			"code": "Ok",
			"matchings": [{
				"distance": 150,
				"duration": 30,
				"geometry": {"coordinates": [[9.1001, 48.7001], [9.1002, 48.7002]]}
			}]
		}`))
	})

	t.Run("single point is duplicated", func(t *testing.T) {
		route, err := client.MatchToRoads(context.Background(), []domain.Point{home})
		require.NoError(t, err)
		assert.Len(t, strings.Split(coords, ";"), 2)
		assert.Equal(t, "50;50", radiuses)
		assert.Equal(t, domain.Point{Lat: 48.7001, Lng: 9.1001}, route.Geometry[0])
		assert.InDelta(t, 0.15, route.DistanceKm, 1e-9)
	})

	t.Run("long traces are downsampled", func(t *testing.T) {
		trace := make([]domain.Point, 250)
		for i := range trace {
			trace[i] = domain.Point{Lat: 48.7 + float64(i)*0.0001, Lng: 9.1}
		}
		_, err := client.MatchToRoads(context.Background(), trace)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(strings.Split(coords, ";")), MaxMatchPoints)
	})

	t.Run("empty trace", func(t *testing.T) {
		_, err := client.MatchToRoads(context.Background(), nil)
		assert.ErrorIs(t, err, ErrInvalidWaypoints)
	})
}

func TestMapboxClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message": "Not Authorized - Invalid Token"}`, ErrUpstream},
		{"server error with html", http.StatusBadGateway, `<html>bad gateway</html>`, ErrUpstream},
		{"no route code", http.StatusOK, `{"code": "NoRoute", "message": "No route found"}`, ErrNoRoute},
		{"no route on 422", http.StatusUnprocessableEntity, `{"code": "NoSegment"}`, ErrNoRoute},
		{"empty routes", http.StatusOK, `{"code": "Ok", "routes": []}`, ErrNoRoute},
		{"malformed json", http.StatusOK, `{"code":`, ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMapboxTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			route, err := client.DirectRoute(context.Background(), home, workplace)
			assert.Nil(t, route)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMapboxClient_ContextCancelled(t *testing.T) {
	client := newMapboxTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": "Ok", "routes": []}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.DirectRoute(ctx, home, workplace)
	assert.ErrorIs(t, err, ErrUpstream)
}
