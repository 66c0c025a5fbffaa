// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"math"

	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/payload"
)

const (
	mousePatternName   = "mouse_pattern_anomaly"
	mousePatternWeight = 0.1
)

// MousePatternRule looks for geometric tells in the cursor path:
// perfectly straight segments and grid-snapped coordinates.
type MousePatternRule struct{}

func (MousePatternRule) Name() string { return mousePatternName }

func (MousePatternRule) Evaluate(ctx context.Context, signals []model.Signal) (*model.RiskFactor, error) {
	moves := byTimestamp(ofType(signals, model.SignalMouseMove))
	if len(moves) < 20 {
		return nil, nil
	}

	type point struct{ x, y float64 }
	points := make([]point, 0, len(moves))
	for _, s := range moves {
		p := payload.New(s.Payload)
		points = append(points, point{x: p.Float("x", 0), y: p.Float("y", 0)})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var score float64
	var reason string

	// Collinear triples: a human path curves, a scripted one does not.
	straight := 0
	for i := 0; i+2 < len(points); i++ {
		p1, p2, p3 := points[i], points[i+1], points[i+2]
		cross := (p2.y-p1.y)*(p3.x-p2.x) - (p3.y-p2.y)*(p2.x-p1.x)
		if math.Abs(cross) < 1.0 {
			straight++
		}
	}
	if ratio := float64(straight) / float64(len(points)-2); ratio > 0.8 {
		score = 0.7
		reason = "Too many straight-line movements"
	}

	snapped := 0
	for _, p := range points {
		if math.Mod(p.x, 10) < 1 && math.Mod(p.y, 10) < 1 {
			snapped++
		}
	}
	if ratio := float64(snapped) / float64(len(points)); ratio > 0.5 && score < 0.5 {
		score = 0.5
		reason = "Grid-snapping detected"
	}

	if score == 0 {
		return nil, nil
	}
	return &model.RiskFactor{
		Name:        mousePatternName,
		Score:       score,
		Weight:      mousePatternWeight,
		Description: reason,
	}, nil
}
