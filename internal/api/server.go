// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	mw "github.com/Ch0c0l4tE/fraud/internal/api/middleware"
	"github.com/Ch0c0l4tE/fraud/internal/cache"
	"github.com/Ch0c0l4tE/fraud/internal/config"
	"github.com/Ch0c0l4tE/fraud/internal/evaluator"
	"github.com/Ch0c0l4tE/fraud/internal/health"
	"github.com/Ch0c0l4tE/fraud/internal/log"
	"github.com/Ch0c0l4tE/fraud/internal/ratelimit"
	"github.com/Ch0c0l4tE/fraud/internal/store"
)

// Coarse outer guards against abusive clients; the per-session limiter
// below them implements the actual admission policy.
const (
	ipRateLimit    = 2000
	globalRPS      = 5000
	globalRPSBurst = 10000
)

// Server wires the HTTP surface to the domain components. All
// collaborators are process-lifetime singletons injected at startup.
type Server struct {
	cfg     config.Config
	store   store.Store
	cache   cache.AnalysisCache
	limiter *ratelimit.SessionLimiter
	eval    *evaluator.Evaluator
	health  *health.Manager
	router  chi.Router
}

// New builds the server and its route table.
func New(
	cfg config.Config,
	st store.Store,
	c cache.AnalysisCache,
	limiter *ratelimit.SessionLimiter,
	eval *evaluator.Evaluator,
	hm *health.Manager,
) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		cache:   c,
		limiter: limiter,
		eval:    eval,
		health:  hm,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(mw.Recoverer)
	r.Use(mw.RequestID)
	r.Use(mw.CORS)
	r.Use(mw.Metrics)
	r.Use(log.Middleware())
	r.Use(mw.Throttle(globalRPS, globalRPSBurst))
	r.Use(httprate.LimitByIP(ipRateLimit, time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Post("/signals", s.handleIngestSignals)
			r.Post("/complete", s.handleCompleteSession)
			r.Get("/analysis", s.handleGetAnalysis)
		})
		r.Post("/analyze", s.handleAnalyze)

		if s.cfg.Development() {
			r.Get("/debug/sessions/{sessionID}/signals", s.handleDebugSignals)
			r.Get("/debug/clients/{clientID}/sessions", s.handleDebugClientSessions)
		}
	})
	return r
}

// Handler returns the fully wrapped HTTP handler, including tracing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "fraud.api")
}
