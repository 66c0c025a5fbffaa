// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/Ch0c0l4tE/fraud/internal/log"
)

// Recoverer converts handler panics into 500 responses and logs the
// stack. http.ErrAbortHandler passes through untouched.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger := log.WithComponentFromContext(r.Context(), "http")
				logger.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("path", r.URL.Path).
					Msg("handler panic recovered")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
