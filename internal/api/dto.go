// SPDX-License-Identifier: MIT

package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ch0c0l4tE/fraud/internal/model"
)

type createSessionRequest struct {
	ClientID          string         `json:"clientId"`
	DeviceFingerprint string         `json:"deviceFingerprint"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

type createSessionResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// signalInput carries one inbound signal; Timestamp is Unix milliseconds.
type signalInput struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

type ingestRequest struct {
	SessionID string        `json:"sessionId"`
	Signals   []signalInput `json:"signals"`
}

type ingestResponse struct {
	SessionID       string `json:"sessionId"`
	SignalsReceived int    `json:"signalsReceived"`
	TotalSignals    int    `json:"totalSignals"`
}

type completeResponse struct {
	SessionID         string    `json:"sessionId"`
	CompletedAt       time.Time `json:"completedAt"`
	SignalCount       int       `json:"signalCount"`
	AnalysisAvailable bool      `json:"analysisAvailable"`
}

type analyzeRequest struct {
	SessionID string        `json:"sessionId"`
	Signals   []signalInput `json:"signals"`
}

// toModel converts validated inputs to domain signals. IDs are assigned
// server-side; signal types are normalized here, once.
func toModel(sessionID string, inputs []signalInput) []model.Signal {
	out := make([]model.Signal, len(inputs))
	for i, in := range inputs {
		out[i] = model.Signal{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Type:      model.ParseSignalType(in.Type),
			Timestamp: time.UnixMilli(in.Timestamp).UTC(),
			Payload:   in.Payload,
		}
	}
	return out
}
