package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CacheControl sets a public Cache-Control header on GET and HEAD responses.
// Requests carrying credentials are marked private so shared caches skip them.
func CacheControl(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				if r.Header.Get("Authorization") != "" {
					w.Header().Set("Cache-Control", "private, no-store")
				} else {
					w.Header().Set("Cache-Control", value)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
