// Package config loads the YAML configuration document: rate-limiter
// algorithm selection, type-weight overrides, cache expiry, dark mode,
// strict-list enforcement and the optional depth limit.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root document shape.
type Config struct {
	RateLimiter         RateLimiterConfig `yaml:"rateLimiter"`
	TypeWeights         TypeWeightsConfig `yaml:"typeWeights"`
	Cache               CacheConfig       `yaml:"cache"`
	Dark                bool              `yaml:"dark"`
	EnforceBoundedLists bool              `yaml:"enforceBoundedLists"`
	DepthLimit          int               `yaml:"depthLimit"`
}

// RateLimiterConfig selects and parameterizes one C4 algorithm.
type RateLimiterConfig struct {
	Algorithm       string  `yaml:"algorithm"`
	Capacity        int     `yaml:"capacity"`
	RefillPerSecond float64 `yaml:"refillPerSecond"`
	Window          string  `yaml:"window"`
}

// WindowDuration parses Window, defaulting to one minute when unset.
func (r RateLimiterConfig) WindowDuration() (time.Duration, error) {
	if r.Window == "" {
		return time.Minute, nil
	}
	return time.ParseDuration(r.Window)
}

const (
	AlgorithmTokenBucket          = "tokenBucket"
	AlgorithmFixedWindow          = "fixedWindow"
	AlgorithmSlidingWindowLog     = "slidingWindowLog"
	AlgorithmSlidingWindowCounter = "slidingWindowCounter"
)

// TypeWeightsConfig mirrors costmodel.Config's five knobs for YAML binding.
type TypeWeightsConfig struct {
	Query      *int `yaml:"query"`
	Mutation   *int `yaml:"mutation"`
	Object     *int `yaml:"object"`
	Scalar     *int `yaml:"scalar"`
	Connection *int `yaml:"connection"`
}

// CacheConfig configures the cache backend's default key expiry.
type CacheConfig struct {
	KeyExpiryMillis int64 `yaml:"keyExpiryMillis"`
}

const defaultKeyExpiryMillis = 86_400_000 // 24h

// Load reads and parses a YAML configuration file, applying defaults.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document into a Config, applying defaults and
// validating the result.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	cfg.Cache.KeyExpiryMillis = defaultKeyExpiryMillis
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}
	if cfg.Cache.KeyExpiryMillis <= 0 {
		cfg.Cache.KeyExpiryMillis = defaultKeyExpiryMillis
	}
	if cfg.RateLimiter.Algorithm == "" {
		cfg.RateLimiter.Algorithm = AlgorithmTokenBucket
	}
	if cfg.RateLimiter.Capacity == 0 {
		cfg.RateLimiter.Capacity = 1000
	}
	if cfg.RateLimiter.RefillPerSecond == 0 {
		cfg.RateLimiter.RefillPerSecond = float64(cfg.RateLimiter.Capacity) / 60
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the recognized option values.
func (c Config) Validate() error {
	switch c.RateLimiter.Algorithm {
	case AlgorithmTokenBucket, AlgorithmFixedWindow, AlgorithmSlidingWindowLog, AlgorithmSlidingWindowCounter:
	default:
		return fmt.Errorf("config: unrecognized rateLimiter.algorithm %q", c.RateLimiter.Algorithm)
	}
	if c.RateLimiter.Capacity <= 0 {
		return fmt.Errorf("config: rateLimiter.capacity must be positive, got %d", c.RateLimiter.Capacity)
	}
	if _, err := c.RateLimiter.WindowDuration(); err != nil {
		return fmt.Errorf("config: rateLimiter.window: %w", err)
	}
	if c.DepthLimit < 0 {
		return fmt.Errorf("config: depthLimit must be non-negative (0 means unbounded), got %d", c.DepthLimit)
	}
	return nil
}
