package domain

import "time"

// MatchScore is the ranking of a candidate rider against a driver's ride.
type MatchScore struct {
	RiderID           string
	RiderName         string
	Score             float64 // In [0, 1], higher is a better match
	DetourTime        time.Duration
	ClosestDistanceKm float64
	DetourDistanceKm  float64
	InRide            bool
	WithinDetourLimit bool
}

// StopRole describes who a stop on a ride belongs to.
type StopRole string

const (
	StopRoleDriver    StopRole = "DRIVER"
	StopRoleRider     StopRole = "RIDER"
	StopRoleWorkplace StopRole = "WORKPLACE"
)

// Stop is one visited location of a ride.
type Stop struct {
	Name  string
	Role  StopRole
	Point Point
}

// Leg is the travel between two consecutive stops.
type Leg struct {
	From     string
	To       string
	Duration time.Duration
}

// RideSummary is a presentation-ready view of a ride.
type RideSummary struct {
	RideID         string
	Driver         *Driver
	Riders         []*Rider
	DistanceKm     float64
	Duration       time.Duration
	Detour         time.Duration
	DirectDuration time.Duration
	Stops          []Stop
	Legs           []Leg
	Geometry       []Point
	FailedAttempts []string // Rejected add attempts since the last summary
}
