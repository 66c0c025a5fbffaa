// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ch0c0l4tE/fraud/internal/cache"
	"github.com/Ch0c0l4tE/fraud/internal/config"
	"github.com/Ch0c0l4tE/fraud/internal/evaluator"
	"github.com/Ch0c0l4tE/fraud/internal/health"
	"github.com/Ch0c0l4tE/fraud/internal/model"
	"github.com/Ch0c0l4tE/fraud/internal/ratelimit"
	"github.com/Ch0c0l4tE/fraud/internal/store"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
	Meta    *metaBlock      `json:"meta"`
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Version = "test"
	if mutate != nil {
		mutate(&cfg)
	}
	limiter := ratelimit.NewSessionLimiter(cfg.RateLimit.MaxRequestsPerMinute, time.Minute)
	eval := evaluator.New(nil, nil, cfg.Evaluator.ModelVersion)
	hm := health.NewManager(cfg.Version)
	return New(cfg, store.NewMemoryStore(), cache.NewMemoryCache(time.Minute), limiter, eval, hm)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var env testEnvelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	}
	return rec, env
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]any{
		"clientId":          "client-1",
		"deviceFingerprint": "fp-abc",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var data createSessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.SessionID)
	return data.SessionID
}

func signalBody(signals ...map[string]any) map[string]any {
	return map[string]any{"signals": signals}
}

func tsMs(offset time.Duration) int64 {
	return time.Now().Add(offset).UnixMilli()
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var report health.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, health.StatusOK, report.Status)
	assert.Equal(t, "test", report.Version)
	assert.NotEmpty(t, env.Meta.RequestID)
	assert.NotEmpty(t, env.Meta.Timestamp)
}

func TestCreateSessionValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("missing fields", func(t *testing.T) {
		rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, codeValidation, env.Error.Code)
		assert.Contains(t, env.Error.Details, "clientId")
		assert.Contains(t, env.Error.Details, "deviceFingerprint")
	})

	t.Run("oversized clientId", func(t *testing.T) {
		long := bytes.Repeat([]byte("x"), 257)
		rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]any{
			"clientId":          string(long),
			"deviceFingerprint": "fp",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error.Details, "clientId")
	})

	t.Run("multibyte clientId counts runes", func(t *testing.T) {
		// 256 two-byte runes: over the byte count, within the char limit.
		long := strings.Repeat("é", 256)
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]any{
			"clientId":          long,
			"deviceFingerprint": "fp",
		})
		assert.Equal(t, http.StatusCreated, rec.Code)

		rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]any{
			"clientId":          long + "é",
			"deviceFingerprint": "fp",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error.Details, "clientId")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString("{nope"))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIngestSignals(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", signalBody(
		map[string]any{"type": "mouse_move", "timestamp": tsMs(0), "payload": map[string]any{"x": 1, "y": 2}},
		map[string]any{"type": "mouseMove", "timestamp": tsMs(time.Second), "payload": map[string]any{"x": 3, "y": 4}},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data ingestResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, id, data.SessionID)
	assert.Equal(t, 2, data.SignalsReceived)
	assert.Equal(t, 2, data.TotalSignals)
	require.NotNil(t, env.Meta.RateLimit)
	assert.Equal(t, 100, env.Meta.RateLimit.Limit)

	// A second batch accumulates.
	_, env = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", signalBody(
		map[string]any{"type": "scroll", "timestamp": tsMs(2 * time.Second), "payload": map[string]any{}},
	))
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.SignalsReceived)
	assert.Equal(t, 3, data.TotalSignals)
}

func TestIngestSignalsUnknownSession(t *testing.T) {
	srv := newTestServer(t, nil)
	rec, env := doJSON(t, srv, http.MethodPost,
		"/api/v1/sessions/3f1c8e02-0000-4000-8000-000000000000/signals", signalBody(
			map[string]any{"type": "scroll", "timestamp": tsMs(0), "payload": map[string]any{}},
		))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeSessionNotFound, env.Error.Code)
}

func TestIngestSignalsValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	t.Run("empty batch", func(t *testing.T) {
		rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", signalBody())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error.Details, "signals")
	})

	t.Run("oversized batch", func(t *testing.T) {
		signals := make([]map[string]any, 1001)
		for i := range signals {
			signals[i] = map[string]any{"type": "scroll", "timestamp": tsMs(0), "payload": map[string]any{}}
		}
		rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals",
			map[string]any{"signals": signals})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error.Details, "signals")
	})

	t.Run("bad signal fields", func(t *testing.T) {
		rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", signalBody(
			map[string]any{"type": "teleport", "timestamp": 0},
		))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error.Details, "signals[0].type")
		assert.Contains(t, env.Error.Details, "signals[0].timestamp")
		assert.Contains(t, env.Error.Details, "signals[0].payload")
	})
}

func TestRateLimitBoundary(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.RateLimit.MaxRequestsPerMinute = 3
	})
	id := createSession(t, srv)

	body := signalBody(map[string]any{"type": "scroll", "timestamp": tsMs(0), "payload": map[string]any{}})
	for i := 0; i < 3; i++ {
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", body)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeRateLimited, env.Error.Code)
	assert.Regexp(t, `Retry after \d+ seconds`, env.Error.Message)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.NotNil(t, env.Meta.RateLimit)
	assert.Equal(t, 0, env.Meta.RateLimit.Remaining)
	assert.NotEmpty(t, env.Meta.RateLimit.ResetAt)

	// Other sessions are unaffected.
	other := createSession(t, srv)
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+other+"/signals", body)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.RateLimit.Enabled = false
		c.RateLimit.MaxRequestsPerMinute = 1
	})
	id := createSession(t, srv)
	body := signalBody(map[string]any{"type": "scroll", "timestamp": tsMs(0), "payload": map[string]any{}})
	for i := 0; i < 5; i++ {
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func headlessSignals() []map[string]any {
	return []map[string]any{
		{"type": "device", "timestamp": tsMs(0), "payload": map[string]any{
			"userAgent": "Mozilla/5.0 HeadlessChrome/120.0", "webdriver": true, "pluginCount": 0,
		}},
		{"type": "fingerprint", "timestamp": tsMs(time.Second), "payload": map[string]any{
			"canvas": "", "webgl": "0", "webglRenderer": "SwiftShader",
		}},
	}
}

func TestCompleteHeadlessSession(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals",
		map[string]any{"signals": headlessSignals()})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var done completeResponse
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, 2, done.SignalCount)
	assert.True(t, done.AnalysisAvailable)
	assert.False(t, done.CompletedAt.IsZero())

	rec, env = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var analysis model.FraudAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &analysis))

	names := make(map[string]bool)
	for _, f := range analysis.RiskFactors {
		names[f.Name] = true
	}
	assert.True(t, names["bot_signature_detected"])
	assert.True(t, names["headless_browser_detected"])
	assert.GreaterOrEqual(t, analysis.ConfidenceScore, 0.5)
	assert.Contains(t, []model.Verdict{model.VerdictReview, model.VerdictBlock}, analysis.Verdict)
}

func TestCompleteNormalSession(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", signalBody(
		map[string]any{"type": "device", "timestamp": tsMs(0), "payload": map[string]any{
			"userAgent": "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Safari/537.36",
			"webdriver": false, "pluginCount": 5,
		}},
		map[string]any{"type": "fingerprint", "timestamp": tsMs(time.Second), "payload": map[string]any{
			"canvas": "a1b2c3d4e5f6", "webgl": "0011223344", "audio": "5566778899",
			"webglRenderer": "NVIDIA GeForce RTX 3080",
		}},
		map[string]any{"type": "mouse_move", "timestamp": tsMs(2 * time.Second), "payload": map[string]any{
			"x": 120, "y": 340, "velocity": 1.4,
		}},
	))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, env := doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/analysis", nil)
	var analysis model.FraudAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &analysis))
	for _, f := range analysis.RiskFactors {
		assert.NotEqual(t, "bot_signature_detected", f.Name)
		assert.NotEqual(t, "headless_browser_detected", f.Name)
	}
	assert.Equal(t, model.VerdictAllow, analysis.Verdict)
	assert.Zero(t, analysis.ConfidenceScore)
}

func TestCompleteTwiceLastWriterWins(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// More signals land, then a second completion re-evaluates.
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals",
		map[string]any{"signals": headlessSignals()})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var done completeResponse
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, 2, done.SignalCount)

	_, env = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/analysis", nil)
	var analysis model.FraudAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &analysis))
	assert.NotEmpty(t, analysis.RiskFactors, "second analysis replaced the empty first one")
}

func TestAnalysisLifecycleErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("unknown session", func(t *testing.T) {
		rec, env := doJSON(t, srv, http.MethodGet,
			"/api/v1/sessions/9a1b0000-0000-4000-8000-000000000000/analysis", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, codeSessionNotFound, env.Error.Code)
	})

	t.Run("analysis not ready", func(t *testing.T) {
		id := createSession(t, srv)
		rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/analysis", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, codeAnalysisNotReady, env.Error.Code)
	})
}

func TestAnalyzeStateless(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]any{
		"sessionId": "ad-hoc-1",
		"signals":   headlessSignals(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var analysis model.FraudAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &analysis))
	assert.Equal(t, "ad-hoc-1", analysis.SessionID)
	assert.NotEmpty(t, analysis.RiskFactors)

	// Nothing persisted: the session does not exist afterwards.
	rec, _ = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/ad-hoc-1/analysis", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]any{
		"signals": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Details, "sessionId")
	assert.Contains(t, env.Error.Details, "signals")
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestDebugEndpointGatedOnEnvironment(t *testing.T) {
	t.Run("development serves it", func(t *testing.T) {
		srv := newTestServer(t, nil)
		id := createSession(t, srv)
		signals := make([]map[string]any, 120)
		for i := range signals {
			signals[i] = map[string]any{
				"type": "scroll", "timestamp": tsMs(time.Duration(i) * time.Millisecond),
				"payload": map[string]any{"i": i},
			}
		}
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals",
			map[string]any{"signals": signals})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/debug/sessions/"+id+"/signals", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var data struct {
			Total   int            `json:"total"`
			Signals []model.Signal `json:"signals"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, 120, data.Total)
		assert.Len(t, data.Signals, 100, "debug output capped")
	})

	t.Run("production does not", func(t *testing.T) {
		srv := newTestServer(t, func(c *config.Config) { c.Environment = config.EnvProduction })
		id := createSession(t, srv)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/debug/sessions/"+id+"/signals", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDebugSignalTypeFilter(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", signalBody(
		map[string]any{"type": "scroll", "timestamp": tsMs(0), "payload": map[string]any{}},
		map[string]any{"type": "keystroke", "timestamp": tsMs(time.Second), "payload": map[string]any{"key": "a"}},
		map[string]any{"type": "scroll", "timestamp": tsMs(2 * time.Second), "payload": map[string]any{}},
	))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, srv, http.MethodGet,
		"/api/v1/debug/sessions/"+id+"/signals?type=keystroke", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Total   int            `json:"total"`
		Signals []model.Signal `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.Total)
	require.Len(t, data.Signals, 1)
	assert.Equal(t, model.SignalKeystroke, data.Signals[0].Type)

	rec, env = doJSON(t, srv, http.MethodGet,
		"/api/v1/debug/sessions/"+id+"/signals?type=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeValidation, env.Error.Code)
}

func TestDebugClientSessions(t *testing.T) {
	srv := newTestServer(t, nil)
	first := createSession(t, srv)
	second := createSession(t, srv)

	rec, env := doJSON(t, srv, http.MethodGet, "/api/v1/debug/clients/client-1/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		ClientID string          `json:"clientId"`
		Sessions []model.Session `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "client-1", data.ClientID)
	require.Len(t, data.Sessions, 2)
	ids := []string{data.Sessions[0].ID, data.Sessions[1].ID}
	assert.ElementsMatch(t, []string{first, second}, ids)

	rec, env = doJSON(t, srv, http.MethodGet, "/api/v1/debug/clients/nobody/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Empty(t, data.Sessions)
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-Id", "caller-supplied-id")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied-id", rec.Header().Get("X-Request-Id"))
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "caller-supplied-id", env.Meta.RequestID)
}

func TestSignalCountScalesWithBatches(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	for i := 0; i < 5; i++ {
		rec, env := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/signals", signalBody(
			map[string]any{"type": "keystroke", "timestamp": tsMs(time.Duration(i) * time.Second),
				"payload": map[string]any{"n": fmt.Sprint(i)}},
		))
		require.Equal(t, http.StatusOK, rec.Code)
		var data ingestResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, i+1, data.TotalSignals)
	}
}
