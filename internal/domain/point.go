package domain

import "fmt"

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// String formats the point as (lat, lng) with 6 decimal places.
func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lng)
}

// Workplace is a shared destination drivers and riders commute to.
type Workplace struct {
	Name     string `json:"name" yaml:"name"`
	Location Point  `json:"location" yaml:"location"`
}
