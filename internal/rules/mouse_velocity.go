// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"fmt"

	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/payload"
)

const (
	mouseVelocityName   = "mouse_velocity_anomaly"
	mouseVelocityWeight = 0.15

	extremeVelocityPxMs = 50.0
	highVelocityPxMs    = 35.0
)

// MouseVelocityRule flags cursor movement that is too fast or too uniform
// for a human hand. Velocity is expected in pixels per millisecond.
type MouseVelocityRule struct{}

func (MouseVelocityRule) Name() string { return mouseVelocityName }

func (MouseVelocityRule) Evaluate(_ context.Context, signals []model.Signal) (*model.RiskFactor, error) {
	moves := ofType(signals, model.SignalMouseMove)
	if len(moves) < 10 {
		return nil, nil
	}

	var velocities []float64
	for _, s := range moves {
		if v := payload.New(s.Payload).Float("velocity", 0); v > 0 {
			velocities = append(velocities, v)
		}
	}
	if len(velocities) < 1 {
		return nil, nil
	}

	var max float64
	for _, v := range velocities {
		if v > max {
			max = v
		}
	}
	m := mean(velocities)
	sd := stdDev(velocities)

	var score float64
	var reason string
	switch {
	case max > extremeVelocityPxMs:
		score = 0.5 + (max-extremeVelocityPxMs)/100
		if score > 0.9 {
			score = 0.9
		}
		reason = fmt.Sprintf("Extreme velocity: %.1f px/ms", max)
	case max > highVelocityPxMs:
		score = 0.3
		reason = fmt.Sprintf("High velocity: %.1f px/ms", max)
	}

	// Near-zero variance over many moves means scripted motion.
	if m > 0 && len(moves) >= 50 {
		if cv := sd / m; cv < 0.1 && score < 0.6 {
			score = 0.6
			reason = fmt.Sprintf("Robotic consistency: CV %.3f", cv)
		}
	}

	if score == 0 {
		return nil, nil
	}
	return &model.RiskFactor{
		Name:        mouseVelocityName,
		Score:       score,
		Weight:      mouseVelocityWeight,
		Description: reason,
	}, nil
}
