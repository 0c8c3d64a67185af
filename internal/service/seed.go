package service

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"carpool/internal/domain"
)

var (
	seedFirstNames = []string{
		"Ahmed", "Mohamed", "Ali", "Hassan", "Mahmoud", "Youssef", "Omar", "Khaled",
		"Amine", "Kamel", "Fatma", "Aisha", "Zeineb", "Nour", "Sana", "Lina", "Hana",
		"Mariem", "Sami", "Mehdi", "Rami", "Nadia", "Sara", "Yasmin", "Hiba", "Mongi",
		"Fraj", "Kaisoun", "Tarek", "Imen", "Wassim", "Asma", "Bilel", "Souad",
		"Anis", "Rania", "Hamza", "Leila", "Firas", "Amal", "Zied", "Emna",
		"Karim", "Olfa", "Chaima", "Walid", "Ines", "Sofien",
	}
	seedLastNames = []string{
		"Ben Ali", "Trabelsi", "Jebali", "Mansouri", "Saidi", "Hammami",
		"Baccouche", "Chakroun", "Ghannouchi", "Zouari", "Tounsi", "Belhadj",
		"Karray", "Sfar", "Dridi", "Mejri", "Louati", "Saied",
		"Ayari", "Mathlouthi", "Marzouki", "Dhaouadi", "Belgacem",
		"Feriani", "Nafzaoui", "Mzali", "Sayyadi", "Stambouli",
		"Ayedi", "Ben Hassine", "Ben Romdhane", "Ben Yahia",
		"Bouazizi", "Arfaoui", "Bachiri",
	}
)

// BoundingBox is a rectangular area in degrees.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// DefaultSeedBox covers the Stuttgart commuter belt.
var DefaultSeedBox = BoundingBox{MinLat: 48.65, MaxLat: 48.95, MinLng: 8.95, MaxLng: 9.35}

// SeedRequest describes a batch of synthetic drivers and riders.
type SeedRequest struct {
	Drivers int
	Riders  int
	Box     BoundingBox // Zero value means DefaultSeedBox
	Seed    uint64      // Same seed, same names and homes
}

// SeedResult lists what was created.
type SeedResult struct {
	DriverIDs []string
	RiderIDs  []string
	Skipped   int
}

// Seeder generates random drivers and riders for demos and load tests.
type Seeder struct {
	drivers    *DriverService
	riders     *RiderService
	workplaces *WorkplaceCatalog
	logger     *zap.Logger
}

// NewSeeder creates a new Seeder.
func NewSeeder(drivers *DriverService, riders *RiderService, workplaces *WorkplaceCatalog, logger *zap.Logger) *Seeder {
	return &Seeder{
		drivers:    drivers,
		riders:     riders,
		workplaces: workplaces,
		logger:     logger,
	}
}

// Generate registers random drivers and riders. Entities that fail to register
// are logged and counted as skipped.
func (s *Seeder) Generate(ctx context.Context, req SeedRequest) (*SeedResult, error) {
	workplaces := s.workplaces.All()
	if len(workplaces) == 0 {
		return nil, ErrUnknownWorkplace
	}
	box := req.Box
	if box == (BoundingBox{}) {
		box = DefaultSeedBox
	}

	rng := rand.New(rand.NewPCG(req.Seed, req.Seed^0x9e3779b97f4a7c15))
	result := &SeedResult{}

	for i := 0; i < req.Drivers; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res, err := s.drivers.RegisterDriver(ctx, RegisterDriverRequest{
			Name:      randomName(rng),
			Home:      randomPoint(rng, box),
			Workplace: workplaces[rng.IntN(len(workplaces))].Name,
			MaxDetour: time.Duration(20+rng.IntN(31)) * time.Minute,
			MaxRiders: 2 + rng.IntN(3),
		})
		if err != nil {
			s.logger.Warn("skipping generated driver", zap.Int("index", i), zap.Error(err))
			result.Skipped++
			continue
		}
		result.DriverIDs = append(result.DriverIDs, res.Driver.ID)
	}

	for i := 0; i < req.Riders; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rider, err := s.riders.RegisterRider(ctx, RegisterRiderRequest{
			Name:      randomName(rng),
			Home:      randomPoint(rng, box),
			Workplace: workplaces[rng.IntN(len(workplaces))].Name,
		})
		if err != nil {
			s.logger.Warn("skipping generated rider", zap.Int("index", i), zap.Error(err))
			result.Skipped++
			continue
		}
		result.RiderIDs = append(result.RiderIDs, rider.ID)
	}

	s.logger.Info("seed complete",
		zap.Int("drivers", len(result.DriverIDs)),
		zap.Int("riders", len(result.RiderIDs)),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

func randomName(rng *rand.Rand) string {
	return seedFirstNames[rng.IntN(len(seedFirstNames))] + " " + seedLastNames[rng.IntN(len(seedLastNames))]
}

func randomPoint(rng *rand.Rand, box BoundingBox) domain.Point {
	return domain.Point{
		Lat: box.MinLat + rng.Float64()*(box.MaxLat-box.MinLat),
		Lng: box.MinLng + rng.Float64()*(box.MaxLng-box.MinLng),
	}
}
