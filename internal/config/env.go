// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Ch0c0l4tE/fraud/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default. The chosen source is logged at debug level.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if strings.Contains(strings.ToLower(key), "password") {
			logger.Debug().Str("key", key).Str("source", "environment").
				Bool("sensitive", true).Msg("using environment variable")
		} else {
			logger.Debug().Str("key", key).Str("value", v).
				Str("source", "environment").Msg("using environment variable")
		}
		return v
	}
	logger.Debug().Str("key", key).Str("default", defaultValue).
		Str("source", "default").Msg("using default value")
	return defaultValue
}

// ParseInt reads an integer, falling back to the default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			logger.Debug().Str("key", key).Int("value", i).
				Str("source", "environment").Msg("using environment variable")
			return i
		}
		logger.Warn().Str("key", key).Str("value", v).Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

// ParseInt64 reads a 64-bit integer, falling back on parse errors.
func ParseInt64(key string, defaultValue int64) int64 {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
		logger.Warn().Str("key", key).Str("value", v).Int64("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

// ParseBool reads a boolean. Accepts true/false, 1/0, yes/no.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		logger.Warn().Str("key", key).Str("value", v).Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
	}
	return defaultValue
}

// ParseFloat reads a float, falling back on parse errors.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		logger.Warn().Str("key", key).Str("value", v).Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
	}
	return defaultValue
}

// ParseDuration reads a Go duration string (e.g. "30s").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logger.Warn().Str("key", key).Str("value", v).Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
	}
	return defaultValue
}
