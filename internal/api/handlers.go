// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ch0c0l4tE/fraud/internal/log"
	"github.com/Ch0c0l4tE/fraud/internal/metrics"
	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/store"
)

const maxBodyBytes = 4 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, s.health.Report(r.Context()), nil)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if fe := validateCreateSession(req); !fe.empty() {
		respondError(w, r, http.StatusBadRequest, codeValidation, "request validation failed", fe, nil)
		return
	}

	session := &model.Session{
		ID:                uuid.NewString(),
		ClientID:          req.ClientID,
		DeviceFingerprint: req.DeviceFingerprint,
		CreatedAt:         time.Now().UTC(),
		Metadata:          req.Metadata,
	}
	if err := s.store.CreateSession(r.Context(), session); err != nil {
		s.storeError(w, r, err)
		return
	}
	metrics.SessionCreated()

	respond(w, r, http.StatusCreated, createSessionResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
	}, nil)
}

func (s *Server) handleIngestSignals(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	meta, ok := s.checkRateLimit(w, r, sessionID)
	if !ok {
		return
	}

	var req ingestRequest
	if !s.decode(w, r, &req) {
		return
	}
	if fe := validateSignals(req.Signals); !fe.empty() {
		respondError(w, r, http.StatusBadRequest, codeValidation, "request validation failed", fe, meta)
		return
	}

	signals := toModel(sessionID, req.Signals)
	if err := s.store.AppendSignals(r.Context(), sessionID, signals); err != nil {
		s.storeError(w, r, err)
		return
	}
	for _, sig := range signals {
		metrics.SignalIngested(string(sig.Type))
	}

	total, err := s.store.SignalCount(r.Context(), sessionID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, ingestResponse{
		SessionID:       sessionID,
		SignalsReceived: len(signals),
		TotalSignals:    total,
	}, meta)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	// One snapshot; signals appended after this point are not part of
	// the resulting analysis.
	signals, err := s.store.SignalsBySession(ctx, sessionID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	analysis, err := s.eval.Evaluate(ctx, sessionID, signals)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if err := s.store.PutAnalysis(ctx, analysis); err != nil {
		s.storeError(w, r, err)
		return
	}
	if err := s.cache.Set(ctx, analysis); err != nil {
		logger := log.WithComponentFromContext(ctx, "http")
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("analysis cache write failed")
	}

	session, err := s.store.CompleteSession(ctx, sessionID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, completeResponse{
		SessionID:         sessionID,
		CompletedAt:       *session.CompletedAt,
		SignalCount:       len(signals),
		AnalysisAvailable: true,
	}, nil)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	exists, err := s.store.SessionExists(ctx, sessionID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if !exists {
		s.storeError(w, r, store.ErrSessionNotFound)
		return
	}

	cached, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		logger := log.WithComponentFromContext(ctx, "http")
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("analysis cache read failed")
	}
	metrics.CacheLookup(cached != nil)
	if cached != nil {
		respond(w, r, http.StatusOK, cached, nil)
		return
	}

	analysis, err := s.store.GetAnalysis(ctx, sessionID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if err := s.cache.Set(ctx, analysis); err != nil {
		logger := log.WithComponentFromContext(ctx, "http")
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("analysis cache write failed")
	}
	respond(w, r, http.StatusOK, analysis, nil)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decode(w, r, &req) {
		return
	}

	fe := validateSignals(req.Signals)
	if req.SessionID == "" {
		fe.add("sessionId", "sessionId is required")
	}
	if !fe.empty() {
		respondError(w, r, http.StatusBadRequest, codeValidation, "request validation failed", fe, nil)
		return
	}

	meta, ok := s.checkRateLimit(w, r, req.SessionID)
	if !ok {
		return
	}

	// Stateless evaluation: nothing is persisted.
	analysis, err := s.eval.Evaluate(r.Context(), req.SessionID, toModel(req.SessionID, req.Signals))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, analysis, meta)
}

const debugSignalLimit = 100

func (s *Server) handleDebugSignals(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var (
		signals []model.Signal
		err     error
	)
	if raw := r.URL.Query().Get("type"); raw != "" {
		if !model.KnownSignalType(raw) {
			respondError(w, r, http.StatusBadRequest, codeValidation,
				fmt.Sprintf("unknown signal type %q", raw), nil, nil)
			return
		}
		signals, err = s.store.SignalsBySessionAndType(r.Context(), sessionID, model.ParseSignalType(raw))
	} else {
		signals, err = s.store.SignalsBySession(r.Context(), sessionID)
	}
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	total := len(signals)
	if len(signals) > debugSignalLimit {
		signals = signals[:debugSignalLimit]
	}
	respond(w, r, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"total":     total,
		"signals":   signals,
	}, nil)
}

const debugSessionLimit = 50

func (s *Server) handleDebugClientSessions(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	sessions, err := s.store.SessionsByClient(r.Context(), clientID, debugSessionLimit)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	respond(w, r, http.StatusOK, map[string]any{
		"clientId": clientID,
		"sessions": sessions,
	}, nil)
}

// decode reads a JSON body; on failure it answers with a validation
// error and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "invalid JSON body", nil, nil)
		return false
	}
	return true
}

// checkRateLimit applies the per-session window. On rejection it writes
// the 429 itself and returns ok=false. The returned meta carries the
// window state for successful responses.
func (s *Server) checkRateLimit(w http.ResponseWriter, r *http.Request, sessionID string) (*metaBlock, bool) {
	if !s.cfg.RateLimit.Enabled || s.limiter == nil {
		return nil, true
	}

	res := s.limiter.Check(sessionID)
	meta := newMeta(r)
	meta.RateLimit = &rateLimitMeta{
		Limit:     res.Limit,
		Remaining: res.Remaining,
	}
	if res.Allowed {
		return meta, true
	}

	retrySecs := int(math.Ceil(res.RetryAfter.Seconds()))
	meta.RateLimit.ResetAt = time.Now().UTC().Add(res.RetryAfter).Format(time.RFC3339)
	w.Header().Set("Retry-After", strconv.Itoa(retrySecs))
	respondError(w, r, http.StatusTooManyRequests, codeRateLimited,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retrySecs), nil, meta)
	return nil, false
}

// storeError maps domain errors to the client error taxonomy.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client is gone; no envelope.
		return
	case errors.Is(err, store.ErrSessionNotFound):
		respondError(w, r, http.StatusNotFound, codeSessionNotFound, "session not found", nil, nil)
	case errors.Is(err, store.ErrAnalysisNotFound):
		respondError(w, r, http.StatusNotFound, codeAnalysisNotReady, "analysis not ready for this session", nil, nil)
	default:
		logger := log.WithComponentFromContext(r.Context(), "http")
		logger.Error().Err(err).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, codeInternal, "internal server error", nil, nil)
	}
}
