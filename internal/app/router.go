package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"carpool/internal/handler"
	"carpool/internal/metrics"
	"carpool/internal/middleware"
	"carpool/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	DriverHandler    *handler.DriverHandler
	RiderHandler     *handler.RiderHandler
	RideHandler      *handler.RideHandler
	WorkplaceHandler *handler.WorkplaceHandler
	IdempotencyStore redis.IdempotencyStoreInterface
	NewRelicApp      *newrelic.Application
	Logger           *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(metrics.Middleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.IdempotencyStore))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		v1.GET("/workplaces", deps.WorkplaceHandler.GetAll)

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.Register)
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.GET("/:id/ride", deps.RideHandler.GetRide)
			drivers.GET("/:id/ride/geojson", deps.RideHandler.GetGeoJSON)
			drivers.GET("/:id/candidates", deps.RideHandler.GetCandidates)
			drivers.POST("/:id/riders", deps.RideHandler.AddRider)
			drivers.DELETE("/:id/riders/:riderId", deps.RideHandler.RemoveRider)
		}

		// Rider routes.
		riders := v1.Group("/riders")
		{
			riders.POST("", deps.RiderHandler.Register)
			riders.GET("", deps.RiderHandler.GetAll)
			riders.GET("/:id", deps.RiderHandler.GetRider)
		}
	}

	return router
}
