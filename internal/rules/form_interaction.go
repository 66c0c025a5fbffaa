// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"fmt"

	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/payload"
)

const (
	formInteractionName   = "form_interaction_anomaly"
	formInteractionWeight = 0.15
)

// FormInteractionRule judges how form fields were filled: impossibly
// fast completion, zero corrections across the whole form, or
// everything pasted.
type FormInteractionRule struct{}

func (FormInteractionRule) Name() string { return formInteractionName }

func (FormInteractionRule) Evaluate(_ context.Context, signals []model.Signal) (*model.RiskFactor, error) {
	forms := ofType(signals, model.SignalFormInteraction)
	if len(forms) == 0 {
		return nil, nil
	}

	var score float64
	var reason string
	apply := func(s float64, r string) {
		if s > score {
			score, reason = s, r
		}
	}

	var fillTimes []float64
	allZeroCorrections := true
	allPasted := true
	for _, s := range forms {
		p := payload.New(s.Payload)
		t := p.Float("timeToFill", 0)
		if t <= 0 {
			t = p.Float("timeToFillMs", 0)
		}
		if t > 0 {
			fillTimes = append(fillTimes, t)
		}
		if p.Int("corrections", 0) != 0 {
			allZeroCorrections = false
		}
		if !p.Bool("pasteDetected", false) {
			allPasted = false
		}
	}

	if len(fillTimes) > 0 {
		min := fillTimes[0]
		for _, t := range fillTimes[1:] {
			if t < min {
				min = t
			}
		}
		if min < 300 {
			apply(0.85, fmt.Sprintf("Form filled too quickly: %.0fms", min))
		} else if avg := mean(fillTimes); avg < 500 {
			apply(0.6, fmt.Sprintf("Fast form completion: avg %.0fms", avg))
		}
	}
	if len(forms) >= 4 && allZeroCorrections {
		apply(0.4, "No typing corrections across all fields")
	}
	if len(forms) > 2 && allPasted {
		apply(0.5, "All fields filled via paste")
	}

	if score == 0 {
		return nil, nil
	}
	return &model.RiskFactor{
		Name:        formInteractionName,
		Score:       score,
		Weight:      formInteractionWeight,
		Description: reason,
	}, nil
}
