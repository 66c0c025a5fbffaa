// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"fmt"

	"github.com/Ch0c0l4tE/fraud/internal/metrics"
	"github.com/Ch0c0l4tE/fraud/internal/model"
)

// Engine runs an ordered bank of rules over a signal snapshot.
type Engine struct {
	rules []Rule
}

// DefaultRules returns the standard bank in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		MouseVelocityRule{},
		MousePatternRule{},
		KeystrokeDynamicsRule{},
		TypingSpeedRule{},
		BotSignatureRule{},
		HeadlessBrowserRule{},
		FormInteractionRule{},
		SessionPatternRule{},
		FingerprintAnomalyRule{},
	}
}

// NewEngine builds an engine over the given rules. A nil or empty list
// selects the default bank.
func NewEngine(rules []Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Evaluate invokes each rule serially and collects the factors of those
// that fired, in rule order. Cancellation is checked between rules.
func (e *Engine) Evaluate(ctx context.Context, signals []model.Signal) ([]model.RiskFactor, error) {
	var factors []model.RiskFactor
	for _, r := range e.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		factor, err := r.Evaluate(ctx, signals)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name(), err)
		}
		if factor != nil {
			metrics.RuleFired(r.Name())
			factors = append(factors, *factor)
		}
	}
	return factors, nil
}
