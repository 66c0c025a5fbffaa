// SPDX-License-Identifier: MIT

package log

import (
	"net/http"
	"time"
)

// Middleware returns an HTTP middleware that emits one structured log event
// per request, annotated with the request ID from context when present.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lw, r)

			logger := WithContext(r.Context(), WithComponent("http"))
			evt := logger.Info()
			if lw.status >= 500 {
				evt = logger.Error()
			} else if lw.status >= 400 {
				evt = logger.Warn()
			}
			evt.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", lw.status).
				Int("bytes", lw.bytes).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}

type loggingWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (lw *loggingWriter) WriteHeader(status int) {
	if !lw.written {
		lw.status = status
		lw.written = true
	}
	lw.ResponseWriter.WriteHeader(status)
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if !lw.written {
		lw.WriteHeader(http.StatusOK)
	}
	n, err := lw.ResponseWriter.Write(b)
	lw.bytes += n
	return n, err
}
