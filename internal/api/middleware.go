// Package api exposes the editing engine over HTTP: the markup codec,
// link-card metadata, AI generation, and live document sessions.
package api

import (
	"net/http"
	"strings"
)

// AuthMiddleware returns middleware enforcing a Bearer token when enabled.
// Disabled mode passes every request through, which is the local-dev
// default.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
