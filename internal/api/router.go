package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/ansuz/internal/metrics"
)

// NewRouter creates the root chi router with every public route mounted.
// metrics may be nil, in which case /metrics is not served.
func NewRouter(h *Handler, m *metrics.Collector) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS())
	if m != nil {
		r.Use(m.Middleware)
	}

	// Health check endpoints.
	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	// Discovery.
	r.Get("/.well-known/webfinger", h.WebFinger)
	r.Get("/.well-known/nodeinfo", h.NodeInfoLinks)
	r.Get("/nodeinfo/{version}", h.NodeInfo)

	// ActivityPub stubs.
	r.Get("/users/{name}", h.Actor)
	r.Get("/users/{name}/outbox", h.Outbox)

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	return r
}
