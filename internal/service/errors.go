package service

import "errors"

var (
	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidName is returned when a person's name is empty.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrUnknownWorkplace is returned when a workplace is not in the catalogue.
	ErrUnknownWorkplace = errors.New("unknown workplace")

	// ErrInvalidMaxDetour is returned when the accepted detour is not positive.
	ErrInvalidMaxDetour = errors.New("invalid max detour")

	// ErrInvalidMaxRiders is returned when the seat count is out of range.
	ErrInvalidMaxRiders = errors.New("invalid max riders")

	// ErrInvalidWeights is returned when scoring weights are negative or do not sum to 1.
	ErrInvalidWeights = errors.New("invalid scoring weights")

	// ErrInvalidNormalization is returned when a normalization constant is not positive.
	ErrInvalidNormalization = errors.New("invalid scoring normalization")

	// ErrWorkplaceMismatch is returned when rider and driver commute to different workplaces.
	ErrWorkplaceMismatch = errors.New("rider workplace does not match driver workplace")

	// ErrRiderAlreadyInRide is returned when the rider is already part of this ride.
	ErrRiderAlreadyInRide = errors.New("rider already in this ride")

	// ErrRiderHasRide is returned when the rider is assigned to another ride.
	ErrRiderHasRide = errors.New("rider already has a ride")

	// ErrRideFull is returned when the ride has no free seat.
	ErrRideFull = errors.New("ride is full")

	// ErrDetourExceeded is returned when adding a rider exceeds the driver's max detour.
	ErrDetourExceeded = errors.New("max detour exceeded")

	// ErrRiderNotInRide is returned when removing a rider who is not part of the ride.
	ErrRiderNotInRide = errors.New("rider not in ride")

	// ErrRideBusy is returned when another change to the ride is in progress.
	ErrRideBusy = errors.New("ride is being updated")

	// ErrRiderBusy is returned when another ride is taking the same rider.
	ErrRiderBusy = errors.New("rider is being assigned")
)
