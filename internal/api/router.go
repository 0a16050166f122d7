package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	mw "laci-tracker/internal/middleware"
)

// RouterConfig carries the cross-cutting HTTP settings the router needs.
type RouterConfig struct {
	JWTSecret      []byte
	AllowedOrigins []string
	RateLimit      mw.RateLimitConfig
}

// NewRouter assembles the full HTTP surface: public health endpoints plus
// the authenticated /v1 API behind CORS, request-id, logging, recovery,
// and rate limiting.
func NewRouter(cfg RouterConfig, handler *Handler, health *Health) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.RateLimit.RequestsPerSecond > 0 {
		r.Use(mw.RateLimiter(cfg.RateLimit))
	}

	r.Get("/healthz/db", health.DB)
	r.Get("/healthz/cache", health.Cache)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.Authenticator(cfg.JWTSecret))
		r.Mount("/", handler.Routes())
	})

	return r
}
