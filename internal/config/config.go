// Package config defines service configuration and its loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers a YAML file and STYLIST_* environment variables on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory score job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the set of remembered job ids.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRankLimit caps GET /v1/outfits/top?limit.
	MaxRankLimit int `koanf:"max_rank_limit"`

	DefaultMatchLimit     int `koanf:"default_match_limit"`
	DefaultRecommendLimit int `koanf:"default_recommend_limit"`

	// MatchSeed seeds the occasion matcher. Zero picks a time based seed.
	MatchSeed int64 `koanf:"match_seed"`

	// BatchConcurrency bounds parallel scoring in batch requests.
	BatchConcurrency int `koanf:"batch_concurrency"`

	// DatabaseURL selects the Postgres wardrobe source. Empty uses the
	// in-memory source, optionally seeded from FixturePath.
	DatabaseURL string `koanf:"database_url"`
	FixturePath string `koanf:"fixture_path"`

	// AuthSecret is the HS256 key for bearer tokens. Empty disables auth.
	AuthSecret string `koanf:"auth_secret"`

	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	BreakerFailureThreshold uint32 `koanf:"breaker_failure_threshold"`
	BreakerTimeoutMS        int    `koanf:"breaker_timeout_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		QueueSize:               10_000,
		WorkerCount:             runtime.NumCPU() * 2,
		DedupeSize:              100_000,
		MaxRankLimit:            100,
		DefaultMatchLimit:       3,
		DefaultRecommendLimit:   5,
		BatchConcurrency:        runtime.NumCPU(),
		RateLimitRPS:            50,
		RateLimitBurst:          100,
		BreakerFailureThreshold: 5,
		BreakerTimeoutMS:        30_000,
	}
}

// Validate checks the invariants the service relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxRankLimit <= 0:
		return fmt.Errorf("%w: max_rank_limit must be positive, got %d", ErrInvalidConfig, c.MaxRankLimit)
	case c.BatchConcurrency <= 0:
		return fmt.Errorf("%w: batch_concurrency must be positive, got %d", ErrInvalidConfig, c.BatchConcurrency)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	}
	return nil
}
