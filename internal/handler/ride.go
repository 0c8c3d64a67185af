package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/mapexport"
)

// RideHandler handles HTTP requests for a driver's ride.
type RideHandler struct {
	rideService     RideService
	matchingService MatchingService
	riderService    RiderService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService RideService, matchingService MatchingService, riderService RiderService) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		matchingService: matchingService,
		riderService:    riderService,
	}
}

// AddRiderRequest is the HTTP request body for adding a rider to a ride.
type AddRiderRequest struct {
	RiderID string `json:"rider_id"`
}

// StopResponse is one stop of a ride in visit order.
type StopResponse struct {
	Name  string       `json:"name"`
	Role  string       `json:"role"`
	Point domain.Point `json:"point"`
}

// LegResponse is the travel time between two consecutive stops.
type LegResponse struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// RideSummaryResponse is the HTTP response for a ride summary.
type RideSummaryResponse struct {
	RideID                string          `json:"ride_id"`
	Driver                DriverResponse  `json:"driver"`
	Riders                []RiderResponse `json:"riders"`
	DistanceKm            float64         `json:"distance_km"`
	DurationMinutes       float64         `json:"duration_minutes"`
	DetourMinutes         float64         `json:"detour_minutes"`
	DirectDurationMinutes float64         `json:"direct_duration_minutes"`
	Stops                 []StopResponse  `json:"stops"`
	Legs                  []LegResponse   `json:"legs"`
	Geometry              []domain.Point  `json:"geometry"`
	FailedAttempts        []string        `json:"failed_attempts"`
}

// MatchScoreResponse is the HTTP response for one ranked candidate.
type MatchScoreResponse struct {
	RiderID           string  `json:"rider_id"`
	RiderName         string  `json:"rider_name"`
	Score             float64 `json:"score"`
	DetourMinutes     float64 `json:"detour_minutes"`
	ClosestDistanceKm float64 `json:"closest_distance_km"`
	DetourDistanceKm  float64 `json:"detour_distance_km"`
	InRide            bool    `json:"in_ride"`
	WithinDetourLimit bool    `json:"within_detour_limit"`
}

// GetRide handles GET /v1/drivers/:id/ride
func (h *RideHandler) GetRide(c *gin.Context) {
	summary, err := h.rideService.RideSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideSummaryResponse(summary))
}

// GetGeoJSON handles GET /v1/drivers/:id/ride/geojson
func (h *RideHandler) GetGeoJSON(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.rideService.RideOverview(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var candidate *domain.Rider
	if candidateID := c.Query("candidate"); candidateID != "" {
		candidate, err = h.riderService.GetRider(ctx, candidateID)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	data, err := mapexport.Marshal(mapexport.RideFeatureCollection(summary, candidate))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/geo+json", data)
}

// GetCandidates handles GET /v1/drivers/:id/candidates
func (h *RideHandler) GetCandidates(c *gin.Context) {
	scores, err := h.matchingService.RankRiders(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]MatchScoreResponse, 0, len(scores))
	for _, s := range scores {
		response = append(response, MatchScoreResponse{
			RiderID:           s.RiderID,
			RiderName:         s.RiderName,
			Score:             s.Score,
			DetourMinutes:     s.DetourTime.Minutes(),
			ClosestDistanceKm: s.ClosestDistanceKm,
			DetourDistanceKm:  s.DetourDistanceKm,
			InRide:            s.InRide,
			WithinDetourLimit: s.WithinDetourLimit,
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// AddRider handles POST /v1/drivers/:id/riders
func (h *RideHandler) AddRider(c *gin.Context) {
	var req AddRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.AddRider(c.Request.Context(), c.Param("id"), req.RiderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// RemoveRider handles DELETE /v1/drivers/:id/riders/:riderId
func (h *RideHandler) RemoveRider(c *gin.Context) {
	ride, err := h.rideService.RemoveRider(c.Request.Context(), c.Param("id"), c.Param("riderId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

func toRideSummaryResponse(s *domain.RideSummary) RideSummaryResponse {
	resp := RideSummaryResponse{
		RideID:                s.RideID,
		Driver:                toDriverResponse(s.Driver),
		Riders:                make([]RiderResponse, 0, len(s.Riders)),
		DistanceKm:            s.DistanceKm,
		DurationMinutes:       s.Duration.Minutes(),
		DetourMinutes:         s.Detour.Minutes(),
		DirectDurationMinutes: s.DirectDuration.Minutes(),
		Stops:                 make([]StopResponse, 0, len(s.Stops)),
		Legs:                  make([]LegResponse, 0, len(s.Legs)),
		Geometry:              s.Geometry,
		FailedAttempts:        s.FailedAttempts,
	}
	if resp.FailedAttempts == nil {
		resp.FailedAttempts = []string{}
	}
	for _, r := range s.Riders {
		resp.Riders = append(resp.Riders, toRiderResponse(r))
	}
	for _, stop := range s.Stops {
		resp.Stops = append(resp.Stops, StopResponse{Name: stop.Name, Role: string(stop.Role), Point: stop.Point})
	}
	for _, leg := range s.Legs {
		resp.Legs = append(resp.Legs, LegResponse{From: leg.From, To: leg.To, DurationMinutes: leg.Duration.Minutes()})
	}
	return resp
}
