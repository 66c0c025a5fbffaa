// SPDX-License-Identifier: MIT

package store

import (
	"fmt"

	"github.com/Ch0c0l4tE/fraud/internal/log"
)

// Open constructs the store for the configured backend.
// Supported backends: "memory" (default) and "sqlite".
func Open(backend, path string) (Store, error) {
	logger := log.WithComponent("store")

	switch backend {
	case "", "memory":
		logger.Info().Str("backend", "memory").Msg("store opened")
		return NewMemoryStore(), nil
	case "sqlite":
		if path == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("backend", "sqlite").Str("path", path).Msg("store opened")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
