package app

import (
	"database/sql"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"carpool/internal/config"
	"carpool/internal/redis"
	"carpool/internal/repository/postgres"
	"carpool/internal/service"
)

// Services holds the wired application services.
type Services struct {
	Workplaces *service.WorkplaceCatalog
	Drivers    *service.DriverService
	Riders     *service.RiderService
	Rides      *service.RideService
	Matching   *service.MatchingService
	Seeder     *service.Seeder
}

// NewServices wires repositories, Redis stores and the routing provider into services.
func NewServices(cfg *config.Config, db *sql.DB, redisClient *goredis.Client, logger *zap.Logger) (*Services, error) {
	// Initialize Redis stores.
	locationStore := redis.NewRiderLocationStore(redisClient)
	lockStore := redis.NewLockStore(redisClient)
	cacheStore := redis.NewRouteCacheStore(redisClient)
	attemptStore := redis.NewAttemptStore(redisClient)

	// Initialize repositories.
	driverRepo := postgres.NewDriverRepository(db)
	riderRepo := postgres.NewRiderRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	tx := postgres.NewTransactor(db)

	router, err := NewRoutingProvider(cfg.Routing, cacheStore, logger)
	if err != nil {
		return nil, err
	}

	scorer, err := service.NewScorer(
		service.Weights{
			DetourTime:      cfg.Matching.WeightDetourTime,
			ClosestDistance: cfg.Matching.WeightClosestDistance,
			DetourDistance:  cfg.Matching.WeightDetourDistance,
		},
		service.Normalization{
			DetourTime:        cfg.Matching.NormDetourTime,
			ClosestDistanceKm: cfg.Matching.NormClosestDistanceKm,
			DetourDistanceKm:  cfg.Matching.NormDetourDistanceKm,
		},
	)
	if err != nil {
		return nil, err
	}

	workplaces := service.NewWorkplaceCatalog(cfg.Workplaces)
	drivers := service.NewDriverService(tx, driverRepo, router, workplaces, cfg.Routing.SnapHomes, logger)
	riders := service.NewRiderService(riderRepo, locationStore, router, workplaces, cfg.Routing.SnapHomes, logger)

	return &Services{
		Workplaces: workplaces,
		Drivers:    drivers,
		Riders:     riders,
		Rides:      service.NewRideService(tx, driverRepo, riderRepo, rideRepo, router, lockStore, attemptStore, logger),
		Matching: service.NewMatchingService(driverRepo, riderRepo, rideRepo, router, locationStore, scorer, service.MatchingConfig{
			Concurrency:       cfg.Matching.Concurrency,
			CandidateRadiusKm: cfg.Matching.CandidateRadiusKm,
		}, logger),
		Seeder: service.NewSeeder(drivers, riders, workplaces, logger),
	}, nil
}
