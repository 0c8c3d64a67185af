package app

import (
	"fmt"

	"go.uber.org/zap"

	"carpool/internal/config"
	"carpool/internal/routing"
)

// NewRoutingProvider builds the configured routing provider. Routes are cached
// when cache is non-nil and the configured TTL is positive.
func NewRoutingProvider(cfg config.RoutingConfig, cache routing.RouteCache, logger *zap.Logger) (routing.Router, error) {
	var router routing.Router
	switch cfg.Provider {
	case config.ProviderMapbox:
		router = routing.NewMapboxClient(cfg.MapboxBaseURL, cfg.MapboxToken, cfg.Timeout, logger)
	case config.ProviderGoogle:
		client, err := routing.NewGoogleClient(cfg.GoogleAPIKey, "", cfg.Timeout, logger)
		if err != nil {
			return nil, err
		}
		router = client
	default:
		return nil, fmt.Errorf("unknown routing provider %q", cfg.Provider)
	}

	if cache != nil && cfg.CacheTTL > 0 {
		router = routing.NewCachedRouter(router, cache, cfg.CacheTTL, logger)
	}

	return router, nil
}
