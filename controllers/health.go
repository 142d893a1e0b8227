package controllers

import (
	"context"
	"log"
	"net/http"

	"go-foodshare/store"
)

// Health reports whether the store answers a ping.
func Health(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
		defer cancel()

		if err := s.Ping(ctx); err != nil {
			log.Printf("Health check failed: %v", err)
			writeMessage(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeMessage(w, http.StatusOK, "ok")
	}
}
