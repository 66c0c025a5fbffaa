// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Throttle enforces a process-wide ceiling on request throughput. It
// protects the evaluator from aggregate overload; per-session admission
// is handled separately by the session limiter.
func Throttle(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "service overloaded", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
