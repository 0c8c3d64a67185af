package domain

import "time"

// Rider represents a commuter looking for a seat.
type Rider struct {
	ID               string
	Name             string
	Home             Point
	Workplace        Workplace
	RideID           string // Empty when the rider is not assigned to a ride
	DirectDuration   time.Duration
	DirectDistanceKm float64
	CreatedAt        time.Time
}

// HasRide reports whether the rider is assigned to a ride.
func (r *Rider) HasRide() bool {
	return r.RideID != ""
}
