// Package handlers implements the read API over the cache-backed query
// engine and the tree store.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PrathamTagline/d247-be/internal/logger"
	"github.com/PrathamTagline/d247-be/internal/query"
	"github.com/PrathamTagline/d247-be/internal/tree"
	"github.com/PrathamTagline/d247-be/internal/upstream"
)

// Handler carries the dependencies of all HTTP handlers. The upstream client
// and pinger may be nil in reduced deployments; routes needing them then 503.
type Handler struct {
	engine   *query.Engine
	store    tree.Store
	upstream *upstream.Client
	pinger   interface {
		Ping(ctx context.Context) error
	}
}

// NewHandler creates a handler with its dependencies.
func NewHandler(engine *query.Engine, store tree.Store, client *upstream.Client, pinger interface {
	Ping(ctx context.Context) error
}) *Handler {
	return &Handler{
		engine:   engine,
		store:    store,
		upstream: client,
		pinger:   pinger,
	}
}

// HealthCheck reports service and database health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "feed-service",
	})
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.WithComponent("http").WithError(err).Warn("encoding response failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logger.WithComponent("http").WithError(err).Warn(message)
	}
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondEmpty is the explicit empty-result envelope for lookups that found
// nothing. Misses are not server errors.
func respondEmpty(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusNotFound, map[string]interface{}{
		"success": false,
		"error":   message,
		"data":    map[string]interface{}{},
	})
}

func parseInt64Param(value string) (int64, error) {
	var parsed int64
	_, err := fmt.Sscanf(value, "%d", &parsed)
	return parsed, err
}
