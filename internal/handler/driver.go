package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name             string       `json:"name"`
	Home             domain.Point `json:"home"`
	Workplace        string       `json:"workplace"`
	MaxDetourMinutes float64      `json:"max_detour_minutes"`
	MaxRiders        int          `json:"max_riders"`
}

// RegisterDriverResponse is the HTTP response for driver registration.
type RegisterDriverResponse struct {
	Driver DriverResponse `json:"driver"`
	Ride   RideResponse   `json:"ride"`
}

// Register handles POST /v1/drivers
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.driverService.RegisterDriver(c.Request.Context(), service.RegisterDriverRequest{
		Name:      req.Name,
		Home:      req.Home,
		Workplace: req.Workplace,
		MaxDetour: time.Duration(req.MaxDetourMinutes * float64(time.Minute)),
		MaxRiders: req.MaxRiders,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, RegisterDriverResponse{
		Driver: toDriverResponse(result.Driver),
		Ride:   toRideResponse(result.Ride),
	})
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.driverService.ListDrivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}

	respondJSON(c, http.StatusOK, response)
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}
