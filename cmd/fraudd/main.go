// SPDX-License-Identifier: MIT

// Command fraudd runs the behavioral fraud detection service: signal
// ingestion, rule evaluation and the analysis API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Ch0c0l4tE/fraud/internal/api"
	"github.com/Ch0c0l4tE/fraud/internal/cache"
	"github.com/Ch0c0l4tE/fraud/internal/config"
	"github.com/Ch0c0l4tE/fraud/internal/evaluator"
	"github.com/Ch0c0l4tE/fraud/internal/health"
	"github.com/Ch0c0l4tE/fraud/internal/log"
	"github.com/Ch0c0l4tE/fraud/internal/ratelimit"
	"github.com/Ch0c0l4tE/fraud/internal/rules"
	"github.com/Ch0c0l4tE/fraud/internal/scorer"
	"github.com/Ch0c0l4tE/fraud/internal/store"
	"github.com/Ch0c0l4tE/fraud/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("fraudd", version)
		return
	}

	if err := run(*configPath); err != nil {
		logger := log.Base()
		logger.Fatal().Err(err).Msg("fraudd failed")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Version = version

	log.Configure(log.Config{
		Level:   cfg.Log.Level,
		Service: "fraudd",
		Version: version,
	})
	logger := log.WithComponent("main")
	logger.Info().
		Str("version", version).
		Str("environment", cfg.Environment).
		Str("listen", cfg.Listen).
		Msg("starting fraudd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "fraudd",
		Version:     version,
		Environment: cfg.Environment,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown incomplete")
		}
	}()

	st, err := store.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	analysisCache, err := cache.Open(ctx, cfg.Cache.Backend, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = analysisCache.Close() }()

	limiter := ratelimit.NewSessionLimiter(cfg.RateLimit.MaxRequestsPerMinute, ratelimit.DefaultWindow)

	var sc scorer.Scorer
	if cfg.Evaluator.ScorerEnabled {
		sc = scorer.NewMockScorer(cfg.Evaluator.ScorerSeed)
	}
	eval := evaluator.New(rules.NewEngine(nil), sc, cfg.Evaluator.ModelVersion)

	hm := health.NewManager(version)
	hm.Register("store", func(ctx context.Context) error {
		_, err := st.SessionExists(ctx, "health-probe")
		return err
	})
	hm.Register("cache", func(ctx context.Context) error {
		_, err := analysisCache.Get(ctx, "health-probe")
		return err
	})

	server := api.New(cfg, st, analysisCache, limiter, eval, hm)

	apiSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", apiSrv.Addr).Msg("api listening")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", metricsSrv.Addr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	if configPath != "" {
		g.Go(func() error {
			err := config.Watch(gctx, configPath, func(next config.Config) {
				limiter.SetLimit(next.RateLimit.MaxRequestsPerMinute)
				log.Configure(log.Config{
					Level:   next.Log.Level,
					Service: "fraudd",
					Version: version,
				})
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("api shutdown incomplete")
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("metrics shutdown incomplete")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("fraudd stopped")
	return nil
}
