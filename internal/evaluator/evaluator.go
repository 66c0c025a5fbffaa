// SPDX-License-Identifier: MIT

// Package evaluator combines rule output and scorer output into one
// weighted confidence score and verdict.
package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/Ch0c0l4tE/fraud/internal/log"
	"github.com/Ch0c0l4tE/fraud/internal/metrics"
	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/rules"
	"github.com/Ch0c0l4tE/fraud/internal/scorer"
)

// DefaultModelVersion tags analyses when no version is configured.
const DefaultModelVersion = "1.0.0-dev"

// Evaluator is a process-lifetime component; construct once and share.
type Evaluator struct {
	engine       *rules.Engine
	scorer       scorer.Scorer
	modelVersion string
}

// New builds an evaluator. scorer may be nil to run rules only; an
// empty modelVersion selects the default.
func New(engine *rules.Engine, sc scorer.Scorer, modelVersion string) *Evaluator {
	if engine == nil {
		engine = rules.NewEngine(nil)
	}
	if modelVersion == "" {
		modelVersion = DefaultModelVersion
	}
	return &Evaluator{engine: engine, scorer: sc, modelVersion: modelVersion}
}

// Evaluate runs the rule bank and the scorer over the signal snapshot
// and aggregates the factors into a verdict. With no firing factors the
// score is zero and the verdict is ALLOW.
func (e *Evaluator) Evaluate(ctx context.Context, sessionID string, signals []model.Signal) (*model.FraudAnalysis, error) {
	start := time.Now()

	factors, err := e.engine.Evaluate(ctx, signals)
	if err != nil {
		return nil, fmt.Errorf("rule engine: %w", err)
	}
	if e.scorer != nil {
		mlFactors, err := e.scorer.Score(ctx, signals)
		if err != nil {
			return nil, fmt.Errorf("scorer: %w", err)
		}
		factors = append(factors, mlFactors...)
	}

	var totalWeight, weightedSum float64
	for _, f := range factors {
		totalWeight += f.Weight
		weightedSum += f.Score * f.Weight
	}
	var score float64
	if totalWeight > 0 {
		score = weightedSum / totalWeight
	}
	verdict := model.VerdictForScore(score)

	metrics.ObserveEvaluation(time.Since(start))
	metrics.VerdictIssued(string(verdict))
	logger := log.WithComponent("evaluator")
	logger.Debug().
		Str("session_id", sessionID).
		Str("verdict", string(verdict)).
		Float64("score", score).
		Int("factors", len(factors)).
		Msg("session evaluated")

	if factors == nil {
		factors = []model.RiskFactor{}
	}
	return &model.FraudAnalysis{
		SessionID:       sessionID,
		Verdict:         verdict,
		ConfidenceScore: score,
		RiskFactors:     factors,
		ModelVersion:    e.modelVersion,
		EvaluatedAt:     time.Now().UTC(),
	}, nil
}
