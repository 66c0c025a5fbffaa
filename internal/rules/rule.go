// SPDX-License-Identifier: MIT

// Package rules implements the behavioral rule bank and the engine that
// runs it. Every rule is a pure function over a signal snapshot: it
// either emits one weighted risk factor or declines to fire. Rules never
// perform I/O and read payload values exclusively through the payload
// extractor.
package rules

import (
	"context"
	"math"
	"sort"

	"github.com/Ch0c0l4tE/fraud/internal/model"
)

// Rule evaluates a session's signal snapshot. A nil factor with a nil
// error means the rule did not fire.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, signals []model.Signal) (*model.RiskFactor, error)
}

// ofType filters signals to one type, preserving input order.
func ofType(signals []model.Signal, t model.SignalType) []model.Signal {
	var out []model.Signal
	for _, s := range signals {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// firstOfType returns the first signal of the given type, or nil.
func firstOfType(signals []model.Signal, t model.SignalType) *model.Signal {
	for i := range signals {
		if signals[i].Type == t {
			return &signals[i]
		}
	}
	return nil
}

// byTimestamp returns a copy sorted ascending by timestamp.
func byTimestamp(signals []model.Signal) []model.Signal {
	out := make([]model.Signal, len(signals))
	copy(out, signals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
