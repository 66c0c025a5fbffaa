// SPDX-License-Identifier: MIT

// Package scorer defines the ML scoring contract and the mock used until
// a real model is wired in.
package scorer

import (
	"context"
	"math/rand"
	"sync"

	"github.com/Ch0c0l4tE/fraud/internal/model"
)

// Scorer produces additional risk factors from a signal snapshot.
// Implementations must be pure aside from their own randomness and must
// honor cancellation.
type Scorer interface {
	Score(ctx context.Context, signals []model.Signal) ([]model.RiskFactor, error)
}

// MockScorer emits, with probability one half, a single synthetic
// anomaly factor scored uniformly in [0, 0.5). It stands in for a real
// model during development.
type MockScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockScorer seeds the mock from the given source. A zero seed gives
// a fixed default, which tests rely on for reproducibility.
func NewMockScorer(seed int64) *MockScorer {
	if seed == 0 {
		seed = 1
	}
	return &MockScorer{rng: rand.New(rand.NewSource(seed))}
}

func (m *MockScorer) Score(ctx context.Context, signals []model.Signal) ([]model.RiskFactor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		return nil, nil
	}

	m.mu.Lock()
	fire := m.rng.Float64() < 0.5
	score := m.rng.Float64() * 0.5
	m.mu.Unlock()

	if !fire {
		return nil, nil
	}
	return []model.RiskFactor{{
		Name:        "ml_anomaly_score",
		Score:       score,
		Weight:      0.4,
		Description: "ML model anomaly detection score (MOCK)",
	}}, nil
}
