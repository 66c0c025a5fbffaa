// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"fmt"
	"time"
)

// Open constructs the analysis cache for the configured backend.
// Supported backends: "memory" (default) and "redis".
func Open(ctx context.Context, backend, addr, password string, db int, ttl time.Duration) (AnalysisCache, error) {
	switch backend {
	case "", "memory":
		return NewMemoryCache(ttl), nil
	case "redis":
		if addr == "" {
			return nil, fmt.Errorf("redis cache requires an address")
		}
		return NewRedisCache(ctx, addr, password, db, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
