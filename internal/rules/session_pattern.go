// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/Ch0c0l4tE/fraud/internal/model"
)

const (
	sessionPatternName   = "session_pattern_anomaly"
	sessionPatternWeight = 0.1
)

// SessionPatternRule looks at the shape of the whole session: which
// signal kinds are present, how long it lasted, and how fast signals
// arrived.
type SessionPatternRule struct{}

func (SessionPatternRule) Name() string { return sessionPatternName }

func (SessionPatternRule) Evaluate(_ context.Context, signals []model.Signal) (*model.RiskFactor, error) {
	if len(signals) == 0 {
		return nil, nil
	}

	var score float64
	var reason string
	apply := func(s float64, r string) {
		if s > score {
			score, reason = s, r
		}
	}

	counts := make(map[model.SignalType]int, len(signals))
	minTS, maxTS := signals[0].Timestamp, signals[0].Timestamp
	for _, s := range signals {
		counts[s.Type]++
		if s.Timestamp.Before(minTS) {
			minTS = s.Timestamp
		}
		if s.Timestamp.After(maxTS) {
			maxTS = s.Timestamp
		}
	}

	if counts[model.SignalDevice] == 0 || counts[model.SignalFingerprint] == 0 {
		apply(0.7, "Missing device/fingerprint signals")
	}
	if len(signals) > 10 && counts[model.SignalMouseMove] == 0 && counts[model.SignalMouseClick] == 0 {
		apply(0.4, "No mouse activity detected")
	}

	duration := maxTS.Sub(minTS)
	if duration < time.Second && len(signals) > 20 {
		apply(0.8, fmt.Sprintf("Rapid session: %d signals in %dms", len(signals), duration.Milliseconds()))
	}
	if duration > 0 {
		if rate := float64(len(signals)) / duration.Seconds(); rate > 50 {
			apply(0.6, fmt.Sprintf("High signal rate: %.0f/s", rate))
		}
	}

	if score == 0 {
		return nil, nil
	}
	return &model.RiskFactor{
		Name:        sessionPatternName,
		Score:       score,
		Weight:      sessionPatternWeight,
		Description: reason,
	}, nil
}
