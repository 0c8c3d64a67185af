// Package mapexport renders rides as GeoJSON for map viewers.
package mapexport

import (
	"encoding/json"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"carpool/internal/domain"
)

// Marker roles and colors follow the simplestyle convention understood by
// geojson.io and most web map viewers.
const (
	RoleDriver    = "driver"
	RoleRider     = "rider"
	RoleWorkplace = "workplace"
	RoleCandidate = "candidate"
	RoleRoute     = "route"

	colorDriver    = "#1f77b4"
	colorRider     = "#2ca02c"
	colorWorkplace = "#d62728"
	colorCandidate = "#ff7f0e"
	colorRoute     = "#9467bd"
)

// RideFeatureCollection builds a feature collection with the driver's home,
// rider homes, the workplace, the ride geometry and an optional candidate.
func RideFeatureCollection(summary *domain.RideSummary, candidate *domain.Rider) *geojson.FeatureCollection {
	driver := summary.Driver
	fc := &geojson.FeatureCollection{}

	fc.Features = append(fc.Features, pointFeature(driver.ID, driver.Home, RoleDriver, driver.Name, colorDriver))
	for _, r := range summary.Riders {
		fc.Features = append(fc.Features, pointFeature(r.ID, r.Home, RoleRider, r.Name, colorRider))
	}
	fc.Features = append(fc.Features, pointFeature("workplace", driver.Workplace.Location, RoleWorkplace, driver.Workplace.Name, colorWorkplace))

	if candidate != nil {
		fc.Features = append(fc.Features, pointFeature(candidate.ID, candidate.Home, RoleCandidate, candidate.Name, colorCandidate))
	}

	if len(summary.Geometry) >= 2 {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       "route",
			Geometry: lineString(summary.Geometry),
			Properties: map[string]interface{}{
				"role":         RoleRoute,
				"name":         driver.Name + " to " + driver.Workplace.Name,
				"distance_km":  summary.DistanceKm,
				"duration_min": summary.Duration.Minutes(),
				"stroke":       colorRoute,
				"stroke-width": 4,
			},
		})
	}

	return fc
}

// Marshal encodes the feature collection.
func Marshal(fc *geojson.FeatureCollection) ([]byte, error) {
	return json.Marshal(fc)
}

func pointFeature(id string, p domain.Point, role, name, color string) *geojson.Feature {
	return &geojson.Feature{
		ID:       id,
		Geometry: geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}),
		Properties: map[string]interface{}{
			"role":         role,
			"name":         name,
			"marker-color": color,
		},
	}
}

func lineString(points []domain.Point) *geom.LineString {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.Lng, p.Lat)
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}
