package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/domain"
)

func TestValidateStops(t *testing.T) {
	tests := []struct {
		name    string
		stops   int
		wantErr bool
	}{
		{"single stop", 1, true},
		{"two stops", 2, false},
		{"twelve stops", 12, false},
		{"thirteen stops", 13, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStops(make([]domain.Point, tt.stops))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWaypoints)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDownsample(t *testing.T) {
	points := make([]domain.Point, 250)
	for i := range points {
		points[i] = domain.Point{Lat: float64(i)}
	}

	out := Downsample(points, MaxMatchPoints)
	require.LessOrEqual(t, len(out), MaxMatchPoints)
	assert.Equal(t, points[0], out[0])
	// step = 250/100 + 1 = 3
	assert.Equal(t, 3.0, out[1].Lat)

	short := points[:10]
	assert.Equal(t, short, Downsample(short, MaxMatchPoints))
}

func TestInvertWaypointIndex(t *testing.T) {
	// Input 1 is visited third, input 2 second
	order, err := InvertWaypointIndex([]int{0, 2, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1, 3}, order)

	order, err = InvertWaypointIndex([]int{0, 3, 1, 2, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 1, 4}, order)

	_, err = InvertWaypointIndex([]int{0, 0, 1})
	assert.Error(t, err)

	_, err = InvertWaypointIndex([]int{0, 5})
	assert.Error(t, err)
}

func TestStopOrderFromWaypointOrder(t *testing.T) {
	order, err := stopOrderFromWaypointOrder([]int{1, 0}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1, 3}, order)

	order, err = stopOrderFromWaypointOrder(nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, order)

	_, err = stopOrderFromWaypointOrder([]int{0, 0}, 4)
	assert.Error(t, err)

	_, err = stopOrderFromWaypointOrder([]int{0}, 4)
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	a := domain.Point{Lat: 48.8315, Lng: 9.3095}
	b := domain.Point{Lat: 48.7833, Lng: 9.2250}

	key := CacheKey("mapbox", OpDirect, []domain.Point{a, b})
	assert.Equal(t, "mapbox:direct:48.831500,9.309500;48.783300,9.225000", key)
	assert.NotEqual(t, key, CacheKey("mapbox", OpDirect, []domain.Point{b, a}))
	assert.NotEqual(t, key, CacheKey("google", OpDirect, []domain.Point{a, b}))
	assert.Equal(t, key, CacheKey("mapbox", OpDirect, []domain.Point{{Lat: 48.83150000001, Lng: 9.3095}, b}))
}
