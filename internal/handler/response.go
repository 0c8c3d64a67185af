package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/routing"
	"carpool/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository/routing errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrUnknownWorkplace),
		errors.Is(err, service.ErrInvalidMaxDetour),
		errors.Is(err, service.ErrInvalidMaxRiders),
		errors.Is(err, routing.ErrInvalidWaypoints):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrWorkplaceMismatch),
		errors.Is(err, service.ErrRiderAlreadyInRide),
		errors.Is(err, service.ErrRiderHasRide),
		errors.Is(err, service.ErrRideFull),
		errors.Is(err, service.ErrRiderNotInRide),
		errors.Is(err, service.ErrRideBusy),
		errors.Is(err, service.ErrRiderBusy):
		return http.StatusConflict

	// Business rule errors
	case errors.Is(err, service.ErrDetourExceeded),
		errors.Is(err, routing.ErrNoRoute):
		return http.StatusUnprocessableEntity

	// Routing provider unavailable
	case errors.Is(err, routing.ErrUpstream):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Home             domain.Point `json:"home"`
	Workplace        string       `json:"workplace"`
	MaxDetourMinutes float64      `json:"max_detour_minutes"`
	MaxRiders        int          `json:"max_riders"`
	CreatedAt        string       `json:"created_at"`
}

// RiderResponse is the HTTP response for rider data.
type RiderResponse struct {
	ID                    string       `json:"id"`
	Name                  string       `json:"name"`
	Home                  domain.Point `json:"home"`
	Workplace             string       `json:"workplace"`
	RideID                string       `json:"ride_id,omitempty"`
	DirectDurationMinutes float64      `json:"direct_duration_minutes"`
	DirectDistanceKm      float64      `json:"direct_distance_km"`
	CreatedAt             string       `json:"created_at"`
}

// RideResponse is the HTTP response for ride data.
type RideResponse struct {
	ID                    string         `json:"id"`
	DriverID              string         `json:"driver_id"`
	RiderIDs              []string       `json:"rider_ids"`
	DistanceKm            float64        `json:"distance_km"`
	DurationMinutes       float64        `json:"duration_minutes"`
	DetourMinutes         float64        `json:"detour_minutes"`
	DirectDurationMinutes float64        `json:"direct_duration_minutes"`
	StopOrder             []int          `json:"stop_order"`
	Geometry              []domain.Point `json:"geometry"`
	UpdatedAt             string         `json:"updated_at"`
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:               d.ID,
		Name:             d.Name,
		Home:             d.Home,
		Workplace:        d.Workplace.Name,
		MaxDetourMinutes: d.MaxDetour.Minutes(),
		MaxRiders:        d.MaxRiders,
		CreatedAt:        formatTime(d.CreatedAt),
	}
}

func toRiderResponse(r *domain.Rider) RiderResponse {
	return RiderResponse{
		ID:                    r.ID,
		Name:                  r.Name,
		Home:                  r.Home,
		Workplace:             r.Workplace.Name,
		RideID:                r.RideID,
		DirectDurationMinutes: r.DirectDuration.Minutes(),
		DirectDistanceKm:      r.DirectDistanceKm,
		CreatedAt:             formatTime(r.CreatedAt),
	}
}

func toRideResponse(r *domain.Ride) RideResponse {
	riderIDs := r.RiderIDs
	if riderIDs == nil {
		riderIDs = []string{}
	}
	return RideResponse{
		ID:                    r.ID,
		DriverID:              r.DriverID,
		RiderIDs:              riderIDs,
		DistanceKm:            r.Route.DistanceKm,
		DurationMinutes:       r.Route.Duration.Minutes(),
		DetourMinutes:         r.Detour().Minutes(),
		DirectDurationMinutes: r.DirectDuration.Minutes(),
		StopOrder:             r.Route.StopOrder,
		Geometry:              r.Geometry(),
		UpdatedAt:             formatTime(r.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
