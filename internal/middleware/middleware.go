// Package middleware holds the HTTP middleware that isn't already provided
// by chi.
package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/PrathamTagline/d247-be/internal/logger"
)

// SecretKey guards tree listing endpoints with a shared header secret.
// An empty configured key disables the guard (local development).
func SecretKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && r.Header.Get("X-Secret-Key") != key {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"status":  false,
					"message": "invalid or missing secret key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one structured line per request.
func RequestLogger(next http.Handler) http.Handler {
	log := logger.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		log.WithFields(logger.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": recorder.status,
			"took":   time.Since(started).String(),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
