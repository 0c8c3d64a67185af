package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"carpool/internal/domain"
)

// Routing providers.
const (
	ProviderMapbox = "mapbox"
	ProviderGoogle = "google"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NewRelic   NewRelicConfig
	Logging    LoggingConfig
	Routing    RoutingConfig
	Matching   MatchingConfig
	Workplaces []domain.Workplace
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Env   string // prod, local, dev, docker
	Level string // debug, info, warn, error (empty = env default)
}

// RoutingConfig holds routing provider settings.
type RoutingConfig struct {
	Provider      string
	MapboxToken   string
	MapboxBaseURL string
	GoogleAPIKey  string
	Timeout       time.Duration
	CacheTTL      time.Duration // 0 disables route caching
	SnapHomes     bool          // Snap registered homes to the road network
}

// MatchingConfig holds the scoring weights and normalization constants.
type MatchingConfig struct {
	WeightDetourTime      float64
	WeightClosestDistance float64
	WeightDetourDistance  float64

	NormDetourTime        time.Duration
	NormClosestDistanceKm float64
	NormDetourDistanceKm  float64

	Concurrency       int     // Parallel routing calls while ranking
	CandidateRadiusKm float64 // 0 disables the GEO pre-filter
}

// DefaultWorkplaces is the built-in workplace catalogue.
func DefaultWorkplaces() []domain.Workplace {
	return []domain.Workplace{
		{Name: "STIHL", Location: domain.Point{Lat: 48.8315, Lng: 9.3095}},
		{Name: "MERCEDES", Location: domain.Point{Lat: 48.7833, Lng: 9.2250}},
	}
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "carpool"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "carpool-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Logging: LoggingConfig{
			Env:   getEnv("ENV", "local"),
			Level: getEnv("LOG_LEVEL", ""),
		},
		Routing: RoutingConfig{
			Provider:      getEnv("ROUTING_PROVIDER", ProviderMapbox),
			MapboxToken:   getEnv("MAPBOX_ACCESS_TOKEN", ""),
			MapboxBaseURL: getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
			GoogleAPIKey:  getEnv("GOOGLE_MAPS_API_KEY", ""),
			Timeout:       getDurationEnv("ROUTING_TIMEOUT", 10*time.Second),
			CacheTTL:      getDurationEnv("ROUTE_CACHE_TTL", 6*time.Hour),
			SnapHomes:     getBoolEnv("ROUTING_SNAP_HOMES", true),
		},
		Matching: MatchingConfig{
			WeightDetourTime:      getFloatEnv("MATCH_WEIGHT_DETOUR_TIME", 0.5),
			WeightClosestDistance: getFloatEnv("MATCH_WEIGHT_CLOSEST_DISTANCE", 0.3),
			WeightDetourDistance:  getFloatEnv("MATCH_WEIGHT_DETOUR_DISTANCE", 0.2),
			NormDetourTime:        getDurationEnv("MATCH_NORM_DETOUR_TIME", 30*time.Minute),
			NormClosestDistanceKm: getFloatEnv("MATCH_NORM_CLOSEST_KM", 5.0),
			NormDetourDistanceKm:  getFloatEnv("MATCH_NORM_DETOUR_KM", 15.0),
			Concurrency:           getIntEnv("MATCH_CONCURRENCY", 4),
			CandidateRadiusKm:     getFloatEnv("MATCH_CANDIDATE_RADIUS_KM", 0),
		},
		Workplaces: DefaultWorkplaces(),
	}

	if path := getEnv("WORKPLACES_FILE", ""); path != "" {
		workplaces, err := LoadWorkplaces(path)
		if err != nil {
			return nil, err
		}
		cfg.Workplaces = workplaces
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

type workplacesFile struct {
	Workplaces []domain.Workplace `yaml:"workplaces"`
}

// LoadWorkplaces reads a workplace catalogue from a YAML file.
func LoadWorkplaces(path string) ([]domain.Workplace, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read workplaces %s: %w", path, err)
	}

	var f workplacesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse workplaces: %w", err)
	}
	if len(f.Workplaces) == 0 {
		return nil, fmt.Errorf("workplaces file %s defines no workplaces", path)
	}
	return f.Workplaces, nil
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	m := c.Matching
	if m.WeightDetourTime < 0 || m.WeightClosestDistance < 0 || m.WeightDetourDistance < 0 {
		return errors.New("matching weights must be non-negative")
	}
	if sum := m.WeightDetourTime + m.WeightClosestDistance + m.WeightDetourDistance; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("matching weights must sum to 1, got %f", sum)
	}
	if m.NormDetourTime <= 0 || m.NormClosestDistanceKm <= 0 || m.NormDetourDistanceKm <= 0 {
		return errors.New("matching normalization constants must be positive")
	}
	if m.Concurrency <= 0 {
		return fmt.Errorf("matching concurrency must be positive, got %d", m.Concurrency)
	}

	switch c.Routing.Provider {
	case ProviderMapbox:
		if c.Routing.MapboxToken == "" {
			return errors.New("MAPBOX_ACCESS_TOKEN is required for the mapbox provider")
		}
	case ProviderGoogle:
		if c.Routing.GoogleAPIKey == "" {
			return errors.New("GOOGLE_MAPS_API_KEY is required for the google provider")
		}
	default:
		return fmt.Errorf("unknown routing provider %q", c.Routing.Provider)
	}

	seen := make(map[string]bool, len(c.Workplaces))
	for _, w := range c.Workplaces {
		if w.Name == "" {
			return errors.New("workplace name is required")
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate workplace %q", w.Name)
		}
		if !w.Location.Valid() {
			return fmt.Errorf("workplace %q has invalid location", w.Name)
		}
		seen[w.Name] = true
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
