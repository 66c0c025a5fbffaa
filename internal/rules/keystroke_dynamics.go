// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"fmt"

	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/payload"
)

const (
	keystrokeDynamicsName   = "keystroke_dynamics_anomaly"
	keystrokeDynamicsWeight = 0.2
)

// KeystrokeDynamicsRule examines dwell and flight times. Human typists
// show tens of milliseconds of dwell with natural jitter; replayed or
// synthesized keystrokes cluster tightly at low values.
type KeystrokeDynamicsRule struct{}

func (KeystrokeDynamicsRule) Name() string { return keystrokeDynamicsName }

func (KeystrokeDynamicsRule) Evaluate(_ context.Context, signals []model.Signal) (*model.RiskFactor, error) {
	keys := ofType(signals, model.SignalKeystrokeDynamics)
	if len(keys) < 5 {
		return nil, nil
	}

	var dwells, flights []float64
	for _, s := range keys {
		p := payload.New(s.Payload)
		if d := p.Float("dwellTimeMs", 0); d > 0 {
			dwells = append(dwells, d)
		}
		if f := p.Float("flightTimeMs", 0); f > 0 {
			flights = append(flights, f)
		}
	}

	var score float64
	var reason string
	apply := func(s float64, r string) {
		if s > score {
			score, reason = s, r
		}
	}

	if len(dwells) > 0 {
		avgDwell := mean(dwells)
		sd := stdDev(dwells)
		switch {
		case avgDwell < 20:
			apply(0.9, fmt.Sprintf("Inhuman typing speed: avg dwell %.0fms", avgDwell))
		case avgDwell < 40:
			apply(0.5, fmt.Sprintf("Suspiciously fast typing: avg dwell %.0fms", avgDwell))
		}
		if sd < 3 && len(keys) > 20 {
			apply(0.8, "Robotic consistency in keystroke timing")
		} else if sd < 8 && len(keys) > 30 {
			apply(0.5, "Low variance in keystroke timing")
		}
	}
	if len(flights) > 10 {
		if avgFlight := mean(flights); avgFlight < 30 {
			apply(0.6, fmt.Sprintf("Rapid key transitions: avg flight %.0fms", avgFlight))
		}
	}

	if score == 0 {
		return nil, nil
	}
	return &model.RiskFactor{
		Name:        keystrokeDynamicsName,
		Score:       score,
		Weight:      keystrokeDynamicsWeight,
		Description: reason,
	}, nil
}
