// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/payload"
)

const (
	fingerprintAnomalyName   = "fingerprint_anomaly"
	fingerprintAnomalyWeight = 0.1
)

// FingerprintAnomalyRule cross-checks the fingerprint signal against the
// device signal for inconsistencies a spoofed client tends to produce.
type FingerprintAnomalyRule struct{}

func (FingerprintAnomalyRule) Name() string { return fingerprintAnomalyName }

func (FingerprintAnomalyRule) Evaluate(_ context.Context, signals []model.Signal) (*model.RiskFactor, error) {
	fingerprint := firstOfType(signals, model.SignalFingerprint)
	device := firstOfType(signals, model.SignalDevice)
	if fingerprint == nil || device == nil {
		return nil, nil
	}
	fp := payload.New(fingerprint.Payload)
	dev := payload.New(device.Payload)

	var score float64
	var reason string
	apply := func(s float64, r string) {
		if s > score {
			score, reason = s, r
		}
	}

	if fp.Has("timezoneOffset") && dev.Has("timezoneOffset") {
		diff := math.Abs(fp.Float("timezoneOffset", 0) - dev.Float("timezoneOffset", 0))
		if diff > 60 {
			apply(0.6, fmt.Sprintf("Timezone mismatch: %.0f minutes apart", diff))
		}
	}

	if dev.Has("screenWidth") || dev.Has("screenHeight") {
		w := dev.Int("screenWidth", -1)
		h := dev.Int("screenHeight", -1)
		switch {
		case w == 0 || h == 0:
			apply(0.7, "Zero screen dimensions")
		case (w == 800 && h == 600) || (w == 1 && h == 1):
			apply(0.5, fmt.Sprintf("Suspicious screen resolution: %dx%d", w, h))
		}
	}

	if lang, ok := dev.String("language"); ok && lang != "" {
		if langs, ok := fp.String("languages"); ok && langs != "" {
			primary := strings.ToLower(strings.SplitN(lang, "-", 2)[0])
			if !strings.Contains(strings.ToLower(langs), primary) {
				apply(0.4, fmt.Sprintf("Language %q not in fingerprint languages", lang))
			}
		}
	}

	if score == 0 {
		return nil, nil
	}
	return &model.RiskFactor{
		Name:        fingerprintAnomalyName,
		Score:       score,
		Weight:      fingerprintAnomalyWeight,
		Description: reason,
	}, nil
}
