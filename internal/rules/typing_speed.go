// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"fmt"

	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/payload"
)

const (
	typingSpeedName   = "typing_speed_anomaly"
	typingSpeedWeight = 0.15
)

// TypingSpeedRule flags words-per-minute estimates beyond plausible
// human range. Competitive typists top out around 120 WPM sustained.
type TypingSpeedRule struct{}

func (TypingSpeedRule) Name() string { return typingSpeedName }

func (TypingSpeedRule) Evaluate(_ context.Context, signals []model.Signal) (*model.RiskFactor, error) {
	for _, s := range ofType(signals, model.SignalKeystrokeDynamics) {
		p := payload.New(s.Payload)
		if !p.Has("estimatedWpm") {
			continue
		}
		wpm := p.Float("estimatedWpm", 0)

		var score float64
		var reason string
		switch {
		case wpm > 150:
			score = 0.6 + (wpm-150)/200
			if score > 0.95 {
				score = 0.95
			}
			reason = fmt.Sprintf("Superhuman typing speed: %.0f WPM", wpm)
		case wpm > 120:
			score = 0.3 + (wpm-120)/100
			reason = fmt.Sprintf("Very fast typing: %.0f WPM", wpm)
		default:
			return nil, nil
		}
		return &model.RiskFactor{
			Name:        typingSpeedName,
			Score:       score,
			Weight:      typingSpeedWeight,
			Description: reason,
		}, nil
	}
	return nil, nil
}
