// SPDX-License-Identifier: MIT

// Package api implements the HTTP surface of the fraud service.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Ch0c0l4tE/fraud/internal/log"
)

// Error codes surfaced to clients.
const (
	codeValidation       = "VALIDATION_ERROR"
	codeSessionNotFound  = "SESSION_NOT_FOUND"
	codeAnalysisNotReady = "ANALYSIS_NOT_READY"
	codeRateLimited      = "RATE_LIMIT_EXCEEDED"
	codeInternal         = "INTERNAL_ERROR"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *apiError  `json:"error,omitempty"`
	Meta    *metaBlock `json:"meta,omitempty"`
}

type apiError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type metaBlock struct {
	RequestID string         `json:"requestId,omitempty"`
	Timestamp string         `json:"timestamp"`
	RateLimit *rateLimitMeta `json:"rateLimit,omitempty"`
}

type rateLimitMeta struct {
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"resetAt,omitempty"`
}

func newMeta(r *http.Request) *metaBlock {
	return &metaBlock{
		RequestID: log.RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any, meta *metaBlock) {
	if meta == nil {
		meta = newMeta(r)
	}
	writeEnvelope(w, r, status, envelope{Success: true, Data: data, Meta: meta})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string][]string, meta *metaBlock) {
	if meta == nil {
		meta = newMeta(r)
	}
	writeEnvelope(w, r, status, envelope{
		Success: false,
		Error:   &apiError{Code: code, Message: message, Details: details},
		Meta:    meta,
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "http")
		logger.Error().Err(err).Msg("response encoding failed")
	}
}
