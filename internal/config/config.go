// SPDX-License-Identifier: MIT

// Package config loads the service configuration. Precedence is
// environment > file > defaults; every option has a FRAUD_* variable.
package config

import "time"

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full runtime configuration of the fraud service.
type Config struct {
	Environment string `yaml:"environment"`
	Listen      string `yaml:"listen"`
	MetricsAddr string `yaml:"metricsAddr"`
	Version     string `yaml:"-"`

	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type CacheConfig struct {
	Backend  string        `yaml:"backend"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type RateLimitConfig struct {
	Enabled              bool `yaml:"enabled"`
	MaxRequestsPerMinute int  `yaml:"maxRequestsPerMinute"`
}

type EvaluatorConfig struct {
	ModelVersion  string `yaml:"modelVersion"`
	ScorerEnabled bool   `yaml:"scorerEnabled"`
	ScorerSeed    int64  `yaml:"scorerSeed"`
}

type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Exporter   string  `yaml:"exporter"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Environment: EnvDevelopment,
		Listen:      ":8080",
		MetricsAddr: ":9090",
		Log:         LogConfig{Level: "info"},
		Store:       StoreConfig{Backend: "memory"},
		Cache:       CacheConfig{Backend: "memory", TTL: 15 * time.Minute},
		RateLimit: RateLimitConfig{
			Enabled:              true,
			MaxRequestsPerMinute: 100,
		},
		Evaluator: EvaluatorConfig{
			ModelVersion:  "1.0.0-dev",
			ScorerEnabled: true,
		},
		Tracing: TracingConfig{
			Exporter:   "grpc",
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
	}
}

// Development reports whether debug surfaces should be exposed.
func (c Config) Development() bool {
	return c.Environment == EnvDevelopment
}
