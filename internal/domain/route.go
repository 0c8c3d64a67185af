package domain

import "time"

// Route is a driving route as returned by a routing provider.
type Route struct {
	DistanceKm   float64         `json:"distance_km"`
	Duration     time.Duration   `json:"duration"`
	Geometry     []Point         `json:"geometry"`
	StopOrder    []int           `json:"stop_order"`    // StopOrder[k] is the requested stop index visited k-th
	LegDurations []time.Duration `json:"leg_durations"` // One entry per consecutive pair of visited stops
}
