// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"unicode/utf8"

	"github.com/Ch0c0l4tE/fraud/internal/model"
)

const (
	maxClientIDLen          = 256
	maxDeviceFingerprintLen = 512
	maxBatchSize            = 1000
)

// fieldErrors accumulates per-field validation messages.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, message string) {
	fe[field] = append(fe[field], message)
}

func (fe fieldErrors) empty() bool { return len(fe) == 0 }

func validateCreateSession(req createSessionRequest) fieldErrors {
	fe := make(fieldErrors)
	if req.ClientID == "" {
		fe.add("clientId", "clientId is required")
	} else if utf8.RuneCountInString(req.ClientID) > maxClientIDLen {
		fe.add("clientId", fmt.Sprintf("clientId must be at most %d characters", maxClientIDLen))
	}
	if req.DeviceFingerprint == "" {
		fe.add("deviceFingerprint", "deviceFingerprint is required")
	} else if utf8.RuneCountInString(req.DeviceFingerprint) > maxDeviceFingerprintLen {
		fe.add("deviceFingerprint", fmt.Sprintf("deviceFingerprint must be at most %d characters", maxDeviceFingerprintLen))
	}
	return fe
}

func validateSignals(inputs []signalInput) fieldErrors {
	fe := make(fieldErrors)
	if len(inputs) == 0 {
		fe.add("signals", "at least one signal is required")
		return fe
	}
	if len(inputs) > maxBatchSize {
		fe.add("signals", fmt.Sprintf("batch size must be at most %d signals", maxBatchSize))
		return fe
	}
	for i, in := range inputs {
		field := func(name string) string { return fmt.Sprintf("signals[%d].%s", i, name) }
		if in.Type == "" {
			fe.add(field("type"), "type is required")
		} else if !model.KnownSignalType(in.Type) {
			fe.add(field("type"), fmt.Sprintf("unrecognized signal type %q", in.Type))
		}
		if in.Timestamp <= 0 {
			fe.add(field("timestamp"), "timestamp must be a positive Unix millisecond value")
		}
		if in.Payload == nil {
			fe.add(field("payload"), "payload is required")
		}
	}
	return fe
}
