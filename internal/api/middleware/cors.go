// SPDX-License-Identifier: MIT

// Package middleware holds the HTTP middleware stack for the fraud API.
package middleware

import "net/http"

// CORS applies the permissive policy the ingestion SDK needs: any
// origin, GET/POST/OPTIONS, Content-Type. Preflight requests are
// answered with 204 and never reach the handlers.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
