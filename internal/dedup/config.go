package dedup

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the deduplication engine
type Config struct {
	// MaxCandidates is the maximum number of stored entries an
	// equivalence lookup compares against
	// Default: 200, Range: 1-2000
	MaxCandidates int

	// SweepLimit is the maximum number of entries a dedupe sweep scans
	// Default: 500, Range: 1-10000
	SweepLimit int

	// HydrateConcurrency is the number of concurrent backend reads used
	// when hydrating candidates and sweep entries
	// Default: 8, Range: 1-64
	HydrateConcurrency int

	// ReadsPerSecond paces backend reads during a sweep so a large
	// corpus does not starve interactive callers
	// Set to 0 to disable pacing
	// Default: 0 (unlimited), Range: 0-10000
	ReadsPerSecond float64

	// RequestTimeout bounds a single sweep or lookup end to end
	// Default: 2 minutes
	RequestTimeout time.Duration
}

// DefaultConfig returns the default engine configuration
//
// These defaults are chosen to:
// - Cast a wide candidate net (the identity check prunes cheaply)
// - Keep a full sweep to one bounded batch
// - Avoid hammering the backend (modest hydration fan-out, no pacing
//   unless asked for)
func DefaultConfig() Config {
	return Config{
		MaxCandidates:      200,
		SweepLimit:         500,
		HydrateConcurrency: 8,
		ReadsPerSecond:     0,
		RequestTimeout:     2 * time.Minute,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be positive (got %d)", c.MaxCandidates)
	}
	if c.MaxCandidates > 2000 {
		return fmt.Errorf("max_candidates too large (got %d, max 2000)", c.MaxCandidates)
	}
	if c.SweepLimit <= 0 {
		return fmt.Errorf("sweep_limit must be positive (got %d)", c.SweepLimit)
	}
	if c.SweepLimit > 10000 {
		return fmt.Errorf("sweep_limit too large (got %d, max 10000)", c.SweepLimit)
	}
	if c.HydrateConcurrency <= 0 {
		return fmt.Errorf("hydrate_concurrency must be positive (got %d)", c.HydrateConcurrency)
	}
	if c.HydrateConcurrency > 64 {
		return fmt.Errorf("hydrate_concurrency too large (got %d, max 64)", c.HydrateConcurrency)
	}
	if c.ReadsPerSecond < 0 {
		return fmt.Errorf("reads_per_second cannot be negative (got %.1f)", c.ReadsPerSecond)
	}
	if c.ReadsPerSecond > 10000 {
		return fmt.Errorf("reads_per_second too large (got %.1f, max 10000)", c.ReadsPerSecond)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive (got %v)", c.RequestTimeout)
	}
	if c.RequestTimeout > 30*time.Minute {
		return fmt.Errorf("request_timeout too large (got %v, max 30 minutes)", c.RequestTimeout)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{MaxCandidates: %d, SweepLimit: %d, HydrateConcurrency: %d, ReadsPerSecond: %.1f, Timeout: %v}",
		c.MaxCandidates, c.SweepLimit, c.HydrateConcurrency, c.ReadsPerSecond, c.RequestTimeout,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back to defaults
//
// Environment variables:
//   - CONSTRAINTS_DEDUP_MAX_CANDIDATES: Maximum entries compared per lookup (default: 200)
//   - CONSTRAINTS_DEDUP_SWEEP_LIMIT: Maximum entries scanned per sweep (default: 500)
//   - CONSTRAINTS_DEDUP_HYDRATE_CONCURRENCY: Concurrent backend reads (default: 8)
//   - CONSTRAINTS_DEDUP_READS_PER_SECOND: Sweep read pacing, 0 = unlimited (default: 0)
//   - CONSTRAINTS_DEDUP_TIMEOUT_SECS: End-to-end timeout in seconds (default: 120)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvInt("CONSTRAINTS_DEDUP_MAX_CANDIDATES", &cfg.MaxCandidates); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CONSTRAINTS_DEDUP_SWEEP_LIMIT", &cfg.SweepLimit); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("CONSTRAINTS_DEDUP_HYDRATE_CONCURRENCY", &cfg.HydrateConcurrency); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("CONSTRAINTS_DEDUP_READS_PER_SECOND", &cfg.ReadsPerSecond); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("CONSTRAINTS_DEDUP_TIMEOUT_SECS", &cfg.RequestTimeout, time.Second); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration from an environment variable.
// The multiplier converts the numeric value to a duration
// (e.g., for seconds: multiplier = time.Second).
func parseEnvDuration(key string, dest *time.Duration, multiplier time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * multiplier
	return nil
}
