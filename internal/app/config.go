package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"polybars/internal/model"
)

const minAPIKeyLen = 10

// Config holds application configuration from env
type Config struct {
	Provider          string        `env:"POLYBARS_PROVIDER" envDefault:"polygon"`
	APIKey            string        `env:"POLYBARS_API_KEY"`
	APIKeyEnv         string        `env:"POLYBARS_API_KEY_ENV" envDefault:"POLYGON_API"`
	BaseURL           string        `env:"POLYBARS_BASE_URL" envDefault:"https://api.polygon.io"`
	Cache             bool          `env:"POLYBARS_CACHE" envDefault:"false"`
	CacheDir          string        `env:"POLYBARS_CACHE_DIR,expand" envDefault:"${HOME}/.polybars/ohlcv_cache"`
	SegmentFormat     string        `env:"POLYBARS_SEGMENT_FORMAT" envDefault:"csv.gz"`
	TimeZone          string        `env:"POLYBARS_TZ" envDefault:"America/New_York"`
	Wait              bool          `env:"POLYBARS_WAIT" envDefault:"true"`
	RequestsPerMinute int           `env:"POLYBARS_REQUESTS_PER_MINUTE" envDefault:"0"`
	RateLimitWait     time.Duration `env:"POLYBARS_RATE_LIMIT_WAIT" envDefault:"12s"`
	HTTPTimeout       time.Duration `env:"POLYBARS_HTTP_TIMEOUT" envDefault:"5m"`
	HTTPRetries       int           `env:"POLYBARS_HTTP_RETRIES" envDefault:"2"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"` // debug | info | warn | error
	LogFile           string        `env:"LOG_FILE"`
	LogMaxSizeMB      int           `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ResolveAPIKey returns the key given directly, else the one in the environment
// variable named by APIKeyEnv. Keys shorter than 10 characters are rejected.
func (c *Config) ResolveAPIKey() (string, error) {
	key := strings.TrimSpace(c.APIKey)
	source := "POLYBARS_API_KEY"
	if key == "" {
		source = c.APIKeyEnv
		key = strings.TrimSpace(os.Getenv(c.APIKeyEnv))
	}
	if key == "" {
		return "", fmt.Errorf("%w: no API key: set POLYBARS_API_KEY or %s", model.ErrConfig, c.APIKeyEnv)
	}
	if len(key) < minAPIKeyLen {
		return "", fmt.Errorf("%w: API key from %s is shorter than %d characters", model.ErrConfig, source, minAPIKeyLen)
	}
	return key, nil
}

// Location loads TimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: POLYBARS_TZ %q: %v", model.ErrConfig, c.TimeZone, err)
	}
	return loc, nil
}
