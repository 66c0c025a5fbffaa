// SPDX-License-Identifier: MIT

// Package metrics defines the Prometheus collectors for the fraud
// service. All collectors share the "fraud" namespace and register on
// the default registry via promauto.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fraud"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	signalsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_ingested_total",
		Help:      "Behavioral signals accepted, by signal type.",
	}, []string{"type"})

	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Sessions created.",
	})

	ruleFiringsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_firings_total",
		Help:      "Risk factors emitted, by rule name.",
	}, []string{"rule"})

	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verdicts_total",
		Help:      "Fraud verdicts issued, by verdict.",
	}, []string{"verdict"})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "evaluation_duration_seconds",
		Help:      "End-to-end fraud evaluation latency.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	rateLimitRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratelimit_rejections_total",
		Help:      "Requests rejected by the per-session rate limiter.",
	})

	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_cache_requests_total",
		Help:      "Analysis cache lookups, by outcome (hit or miss).",
	}, []string{"outcome"})
)

func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func SignalIngested(signalType string) {
	signalsIngestedTotal.WithLabelValues(signalType).Inc()
}

func SessionCreated() {
	sessionsCreatedTotal.Inc()
}

func RuleFired(rule string) {
	ruleFiringsTotal.WithLabelValues(rule).Inc()
}

func VerdictIssued(verdict string) {
	verdictsTotal.WithLabelValues(verdict).Inc()
}

func ObserveEvaluation(d time.Duration) {
	evaluationDuration.Observe(d.Seconds())
}

func RateLimitRejected() {
	rateLimitRejectionsTotal.Inc()
}

func CacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheHitsTotal.WithLabelValues(outcome).Inc()
}
