// SPDX-License-Identifier: MIT

// Package cache holds the read-side cache for fraud analyses. Analysis
// results are immutable once written (a re-evaluation replaces the entry),
// so a simple key/value cache with TTL is sufficient.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Ch0c0l4tE/fraud/internal/model"
)

// AnalysisCache caches evaluation results keyed by session id.
// A miss returns (nil, nil); errors are reserved for backend failures.
type AnalysisCache interface {
	Get(ctx context.Context, sessionID string) (*model.FraudAnalysis, error)
	Set(ctx context.Context, a *model.FraudAnalysis) error
	Close() error
}

type memoryEntry struct {
	analysis model.FraudAnalysis
	expires  time.Time
}

// MemoryCache is the in-process default. Expired entries are dropped
// lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemoryCache returns a memory cache with the given TTL.
// A non-positive TTL disables expiry.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, sessionID string) (*model.FraudAnalysis, error) {
	c.mu.RLock()
	e, ok := c.entries[sessionID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, sessionID)
		c.mu.Unlock()
		return nil, nil
	}
	cp := e.analysis
	cp.RiskFactors = append([]model.RiskFactor(nil), e.analysis.RiskFactors...)
	return &cp, nil
}

func (c *MemoryCache) Set(_ context.Context, a *model.FraudAnalysis) error {
	cp := *a
	cp.RiskFactors = append([]model.RiskFactor(nil), a.RiskFactors...)

	var expires time.Time
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[a.SessionID] = memoryEntry{analysis: cp, expires: expires}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error { return nil }
