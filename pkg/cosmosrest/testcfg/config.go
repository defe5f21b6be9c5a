package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for cosmosrest client acceptance tests
type Config struct {
	BaseURL     string        `env:"COSMOSREST_TEST_BASE_URL" envDefault:"https://rest.cosmos.directory/cosmoshub"`
	PageSize    uint64        `env:"COSMOSREST_TEST_PAGE_SIZE" envDefault:"5"`
	MaxPages    int           `env:"COSMOSREST_TEST_MAX_PAGES" envDefault:"2"`
	HTTPTimeout time.Duration `env:"COSMOSREST_TEST_HTTP_TIMEOUT" envDefault:"30s"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
