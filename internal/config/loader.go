// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration: defaults, overlaid with the
// YAML file at path (if non-empty), overlaid with FRAUD_* environment
// variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Environment = ParseString("FRAUD_ENVIRONMENT", cfg.Environment)
	cfg.Listen = ParseString("FRAUD_LISTEN", cfg.Listen)
	cfg.MetricsAddr = ParseString("FRAUD_METRICS_ADDR", cfg.MetricsAddr)

	cfg.Log.Level = ParseString("FRAUD_LOG_LEVEL", cfg.Log.Level)

	cfg.Store.Backend = ParseString("FRAUD_STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = ParseString("FRAUD_STORE_PATH", cfg.Store.Path)

	cfg.Cache.Backend = ParseString("FRAUD_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.Addr = ParseString("FRAUD_CACHE_ADDR", cfg.Cache.Addr)
	cfg.Cache.Password = ParseString("FRAUD_CACHE_PASSWORD", cfg.Cache.Password)
	cfg.Cache.DB = ParseInt("FRAUD_CACHE_DB", cfg.Cache.DB)
	cfg.Cache.TTL = ParseDuration("FRAUD_CACHE_TTL", cfg.Cache.TTL)

	cfg.RateLimit.Enabled = ParseBool("FRAUD_RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.MaxRequestsPerMinute = ParseInt("FRAUD_RATELIMIT_MAX_PER_MINUTE", cfg.RateLimit.MaxRequestsPerMinute)

	cfg.Evaluator.ModelVersion = ParseString("FRAUD_MODEL_VERSION", cfg.Evaluator.ModelVersion)
	cfg.Evaluator.ScorerEnabled = ParseBool("FRAUD_SCORER_ENABLED", cfg.Evaluator.ScorerEnabled)
	cfg.Evaluator.ScorerSeed = ParseInt64("FRAUD_SCORER_SEED", cfg.Evaluator.ScorerSeed)

	cfg.Tracing.Enabled = ParseBool("FRAUD_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = ParseString("FRAUD_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = ParseString("FRAUD_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SampleRate = ParseFloat("FRAUD_TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store backend sqlite requires store.path")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.Addr == "" {
			return fmt.Errorf("cache backend redis requires cache.addr")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.RateLimit.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("rateLimit.maxRequestsPerMinute must be positive")
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "grpc", "http":
		default:
			return fmt.Errorf("unknown trace exporter %q", c.Tracing.Exporter)
		}
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing requires tracing.endpoint")
		}
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sampleRate must be within [0, 1]")
	}
	return nil
}
