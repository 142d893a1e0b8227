package middleware

import (
	"log"
	"net/http"

	"go-foodshare/store"
)

// StoreSession acquires a store handle for the lifetime of the request and
// releases it however the handler exits, including panics.
func StoreSession(s store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, release, err := s.Acquire(r.Context())
			if err != nil {
				log.Printf("Failed to acquire store session for %s %s: %v", r.Method, r.URL.Path, err)
				writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
				return
			}
			defer release()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
