// SPDX-License-Identifier: MIT

// Package model defines the core domain records: sessions, behavioral
// signals, risk factors and fraud analyses.
package model

import (
	"strings"
	"time"
)

// SignalType identifies the kind of behavioral measurement a signal carries.
type SignalType string

const (
	SignalMouseMove         SignalType = "mouse_move"
	SignalMouseClick        SignalType = "mouse_click"
	SignalKeystroke         SignalType = "keystroke"
	SignalKeystrokeDynamics SignalType = "keystroke_dynamics"
	SignalScroll            SignalType = "scroll"
	SignalTouch             SignalType = "touch"
	SignalVisibility        SignalType = "visibility"
	SignalFocus             SignalType = "focus"
	SignalPaste             SignalType = "paste"
	SignalDevice            SignalType = "device"
	SignalPerformance       SignalType = "performance"
	SignalFingerprint       SignalType = "fingerprint"
	SignalFormInteraction   SignalType = "form_interaction"
	SignalAccelerometer     SignalType = "accelerometer"
	SignalGyroscope         SignalType = "gyroscope"
	SignalAppLifecycle      SignalType = "app_lifecycle"
	SignalJailbreak         SignalType = "jailbreak_detection"
	SignalRootDetection     SignalType = "root_detection"
	SignalUnknown           SignalType = "unknown"
)

// signalTypes maps the normalized wire form (lower-case, underscores
// stripped) to the canonical type. Both snake_case and camelCase inputs
// normalize to the same key.
var signalTypes = map[string]SignalType{
	"mousemove":          SignalMouseMove,
	"mouseclick":         SignalMouseClick,
	"keystroke":          SignalKeystroke,
	"keystrokedynamics":  SignalKeystrokeDynamics,
	"scroll":             SignalScroll,
	"touch":              SignalTouch,
	"visibility":         SignalVisibility,
	"focus":              SignalFocus,
	"paste":              SignalPaste,
	"device":             SignalDevice,
	"performance":        SignalPerformance,
	"fingerprint":        SignalFingerprint,
	"forminteraction":    SignalFormInteraction,
	"accelerometer":      SignalAccelerometer,
	"gyroscope":          SignalGyroscope,
	"applifecycle":       SignalAppLifecycle,
	"jailbreakdetection": SignalJailbreak,
	"rootdetection":      SignalRootDetection,
	"unknown":            SignalUnknown,
}

// NormalizeSignalType strips underscores and lower-cases the wire value.
// The operation is idempotent.
func NormalizeSignalType(raw string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "_", ""))
}

// ParseSignalType maps a wire value to its canonical SignalType.
// Unrecognized values map to SignalUnknown; they are still accepted.
func ParseSignalType(raw string) SignalType {
	if t, ok := signalTypes[NormalizeSignalType(raw)]; ok {
		return t
	}
	return SignalUnknown
}

// KnownSignalType reports whether raw maps to a member of the taxonomy
// (including the explicit "unknown" type).
func KnownSignalType(raw string) bool {
	_, ok := signalTypes[NormalizeSignalType(raw)]
	return ok
}

// Signal is a single behavioral measurement captured within a session.
// Signals are immutable after append.
type Signal struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Type      SignalType     `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}
