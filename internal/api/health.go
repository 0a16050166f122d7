package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// Pinger is what a health check needs from the cache backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves the unauthenticated liveness endpoints for the store and
// the cache backend.
type Health struct {
	db    *sql.DB
	cache Pinger
}

func NewHealth(db *sql.DB, cache Pinger) *Health {
	return &Health{db: db, cache: cache}
}

func (h *Health) DB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Cache reports degraded rather than unavailable on backend failure: the
// service keeps working against the store without its cache.
func (h *Health) Cache(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Ping(ctx); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
