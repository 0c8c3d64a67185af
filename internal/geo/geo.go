// Package geo contains pure geographic computation helpers.
package geo

import (
	"math"

	"carpool/internal/domain"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two points.
func HaversineKm(a, b domain.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// DistanceToSegmentKm returns the shortest distance from p to the segment a-b.
// The segment is projected onto a local equirectangular plane centred on p,
// which is accurate for the few-kilometre segments of a road geometry.
func DistanceToSegmentKm(p, a, b domain.Point) float64 {
	kx := earthRadiusKm * degreesToRadians(1) * math.Cos(degreesToRadians(p.Lat))
	ky := earthRadiusKm * degreesToRadians(1)

	ax, ay := (a.Lng-p.Lng)*kx, (a.Lat-p.Lat)*ky
	bx, by := (b.Lng-p.Lng)*kx, (b.Lat-p.Lat)*ky

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(ax, ay)
	}

	// Parameter of the projection of the origin (p) onto the segment.
	t := -(ax*dx + ay*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(ax+t*dx, ay+t*dy)
}

// DistanceToPolylineKm returns the minimum distance from p to any segment of line.
// An empty line yields +Inf.
func DistanceToPolylineKm(p domain.Point, line []domain.Point) float64 {
	switch len(line) {
	case 0:
		return math.Inf(1)
	case 1:
		return HaversineKm(p, line[0])
	}

	best := math.Inf(1)
	for i := 1; i < len(line); i++ {
		if d := DistanceToSegmentKm(p, line[i-1], line[i]); d < best {
			best = d
		}
	}
	return best
}

// Centroid returns the arithmetic mean of the points.
func Centroid(points []domain.Point) domain.Point {
	if len(points) == 0 {
		return domain.Point{}
	}
	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(points))
	return domain.Point{Lat: lat / n, Lng: lng / n}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// PolylineLengthKm returns the length of the line in kilometres.
func PolylineLengthKm(line []domain.Point) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += HaversineKm(line[i-1], line[i])
	}
	return total
}
