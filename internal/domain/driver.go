package domain

import "time"

// Driver represents a commuter offering seats on their route to work.
type Driver struct {
	ID        string
	Name      string
	Home      Point
	Workplace Workplace
	MaxDetour time.Duration // Added travel time the driver accepts over the solo route
	MaxRiders int
	CreatedAt time.Time
}
