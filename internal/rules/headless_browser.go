// SPDX-License-Identifier: MIT

package rules

import (
	"context"
	"strings"

	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/payload"
)

const (
	headlessBrowserName   = "headless_browser_detected"
	headlessBrowserWeight = 0.2
)

// HeadlessBrowserRule cross-checks fingerprint and device signals for
// the artifacts headless environments leave behind: absent rendering
// fingerprints, software GL renderers and the webdriver flag.
type HeadlessBrowserRule struct{}

func (HeadlessBrowserRule) Name() string { return headlessBrowserName }

func (HeadlessBrowserRule) Evaluate(_ context.Context, signals []model.Signal) (*model.RiskFactor, error) {
	fingerprint := firstOfType(signals, model.SignalFingerprint)
	device := firstOfType(signals, model.SignalDevice)
	if fingerprint == nil && device == nil {
		return nil, nil
	}

	var score float64
	var reason string
	apply := func(s float64, r string) {
		if s > score {
			score, reason = s, r
		}
	}

	if fingerprint != nil {
		fp := payload.New(fingerprint.Payload)
		if canvas, ok := fp.String("canvas"); !ok || canvas == "" || canvas == "0" || len(canvas) < 8 {
			apply(0.6, "Missing/invalid canvas fingerprint")
		}
		if webgl, ok := fp.String("webgl"); !ok || webgl == "" || webgl == "0" {
			apply(0.5, "Missing WebGL fingerprint")
		}
		if renderer := webglRenderer(fp); isSoftwareRenderer(renderer) {
			apply(0.7, "Software renderer detected")
		}
		if audio, ok := fp.String("audio"); !ok || audio == "" || audio == "0" {
			apply(0.4, "Missing audio fingerprint")
		}
	}
	if device != nil {
		dev := payload.New(device.Payload)
		if dev.Bool("webdriver", false) {
			apply(0.95, "navigator.webdriver is true")
		}
		if dev.Has("pluginCount") && dev.Int("pluginCount", -1) == 0 {
			apply(0.5, "No browser plugins detected")
		}
	}

	if score == 0 {
		return nil, nil
	}
	return &model.RiskFactor{
		Name:        headlessBrowserName,
		Score:       score,
		Weight:      headlessBrowserWeight,
		Description: reason,
	}, nil
}

// webglRenderer reads the flat webglRenderer field, falling back to the
// nested webgl object some SDK versions emit.
func webglRenderer(fp payload.Extractor) string {
	if r, ok := fp.String("webglRenderer"); ok {
		return r
	}
	if nested, ok := fp.Object("webgl"); ok {
		if r, ok := nested.String("unmaskedRenderer"); ok {
			return r
		}
		if r, ok := nested.String("renderer"); ok {
			return r
		}
	}
	return ""
}

func isSoftwareRenderer(renderer string) bool {
	if renderer == "" {
		return false
	}
	if strings.Contains(renderer, "SwiftShader") {
		return true
	}
	return strings.Contains(renderer, "Mesa") && strings.Contains(renderer, "llvmpipe")
}
