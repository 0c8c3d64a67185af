package domain

import "time"

// Ride is a driver's commute together with the riders picked up on the way.
type Ride struct {
	ID               string
	DriverID         string
	RiderIDs         []string // In join order
	Route            Route
	MatchedGeometry  []Point // Road-snapped geometry used for display and closest distance
	DirectDuration   time.Duration
	DirectDistanceKm float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Detour returns the added travel time over the driver's solo route.
func (r *Ride) Detour() time.Duration {
	if r.Route.Duration > r.DirectDuration {
		return r.Route.Duration - r.DirectDuration
	}
	return 0
}

// DetourKm returns the added distance over the driver's solo route.
func (r *Ride) DetourKm() float64 {
	if r.Route.DistanceKm > r.DirectDistanceKm {
		return r.Route.DistanceKm - r.DirectDistanceKm
	}
	return 0
}

// HasRider reports whether the rider is part of this ride.
func (r *Ride) HasRider(riderID string) bool {
	for _, id := range r.RiderIDs {
		if id == riderID {
			return true
		}
	}
	return false
}

// Geometry returns the matched geometry, falling back to the raw route geometry.
func (r *Ride) Geometry() []Point {
	if len(r.MatchedGeometry) > 0 {
		return r.MatchedGeometry
	}
	return r.Route.Geometry
}
