package app

import (
	"fmt"
	"log/slog"
	"strings"

	"polybars/internal/provider"
	"polybars/internal/provider/polygon"
)

// CreateProvider creates DataProvider from config (currently Polygon only)
func CreateProvider(cfg *Config, log *slog.Logger) (provider.DataProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "polygon":
		return createPolygonProvider(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported data provider: %s. Options: polygon", cfg.Provider)
	}
}

func createPolygonProvider(cfg *Config, log *slog.Logger) (*provider.PolygonProvider, error) {
	key, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	return provider.NewPolygonProvider(polygon.ClientConfig{
		Timeout:           cfg.HTTPTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Wait:              cfg.Wait,
		RateLimitWait:     cfg.RateLimitWait,
		Retries:           cfg.HTTPRetries,
	}, cfg.BaseURL, key, log), nil
}
