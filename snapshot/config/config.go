// Package config loads snapshot settings from the environment and chain definitions from YAML.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/screwyprof/stakesnap/pkg/cosmosrest"
	"github.com/screwyprof/stakesnap/pkg/logger"
	"github.com/screwyprof/stakesnap/pkg/retry"
	"github.com/screwyprof/stakesnap/snapshot"
)

var validate = validator.New()

// Config holds all configuration loaded from environment variables
type Config struct {
	ChainsFile          string `env:"SNAPSHOT_CHAINS_FILE" envDefault:"configs/chains.yaml" validate:"required"`
	OutputPrefix        string `env:"SNAPSHOT_OUTPUT_PREFIX" envDefault:"symphony" validate:"required"`
	OutputFile          string `env:"SNAPSHOT_OUTPUT_FILE" envDefault:"combined_cosmos_delegators_above_threshold.csv" validate:"required"`
	MaxWorkers          int    `env:"SNAPSHOT_MAX_WORKERS" envDefault:"10" validate:"min=1"`
	MaxConcurrentChains int    `env:"SNAPSHOT_MAX_CONCURRENT_CHAINS" envDefault:"2" validate:"min=1"`
	ValidatorPageSize   uint64 `env:"SNAPSHOT_VALIDATOR_PAGE_SIZE" envDefault:"1000" validate:"min=1"`
	PageSize            uint64 `env:"SNAPSHOT_PAGE_SIZE" envDefault:"10000" validate:"min=1"`
	MaxPages            int    `env:"SNAPSHOT_MAX_PAGES" envDefault:"1000" validate:"min=1"`

	MaxRetryAttempts  int           `env:"SNAPSHOT_MAX_RETRY_ATTEMPTS" envDefault:"5" validate:"min=1"`
	MinBackoff        time.Duration `env:"SNAPSHOT_MIN_BACKOFF" envDefault:"10s" validate:"min=0"`
	MaxBackoff        time.Duration `env:"SNAPSHOT_MAX_BACKOFF" envDefault:"60s" validate:"gtefield=MinBackoff"`
	BackoffMultiplier float64       `env:"SNAPSHOT_BACKOFF_MULTIPLIER" envDefault:"2" validate:"gte=1"`
	RetryStatusCodes  []int         `env:"SNAPSHOT_RETRY_STATUS_CODES" envSeparator:"," validate:"dive,min=100,max=599"`

	HttpClientTimeout time.Duration `env:"SNAPSHOT_HTTP_CLIENT_TIMEOUT" envDefault:"30s" validate:"min=0"`
	DatabaseURL       string        `env:"SNAPSHOT_DATABASE_URL"`
	MetricsFile       string        `env:"SNAPSHOT_METRICS_FILE"`
	PreviewRows       int           `env:"SNAPSHOT_PREVIEW_ROWS" envDefault:"5" validate:"min=0"`

	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly *bool  `env:"LOG_HUMAN_FRIENDLY"` // unset: text output on a terminal, JSON otherwise
}

// Parse reads configuration from environment, or from the process environment when it is nil
func Parse(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, err
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// New loads all configuration from environment variables
func New() Config {
	return env.Must(Parse(nil))
}

// Retry returns the retry policy. Transient network errors are always retried; HTTP errors only
// for the configured status codes.
func (c Config) Retry() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.MaxRetryAttempts,
		MinDelay:    c.MinBackoff,
		MaxDelay:    c.MaxBackoff,
		Multiplier:  c.BackoffMultiplier,
		Retryable:   cosmosrest.RetryOn(c.RetryStatusCodes...),
	}
}

// Snapshot builds the run configuration for the given chains
func (c Config) Snapshot(chains []snapshot.ChainConfig) snapshot.Config {
	return snapshot.Config{
		Chains:              chains,
		OutputPrefix:        c.OutputPrefix,
		MaxWorkers:          c.MaxWorkers,
		MaxConcurrentChains: c.MaxConcurrentChains,
		ValidatorPageSize:   c.ValidatorPageSize,
		MaxPages:            c.MaxPages,
		Retry:               c.Retry(),
	}
}

// Logger returns the logger configuration; humanFriendly is the resolved output format
func (c Config) Logger(humanFriendly bool) logger.Config {
	return logger.Config{
		LogLevel:         c.LogLevel,
		LogHumanFriendly: humanFriendly,
	}
}
