package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"editor/internal/api"
	"editor/internal/metrics"
)

// New wires the HTTP surface: health, diagnostics, prometheus metrics and
// the editor socket upgrade path.
func New(h *api.Handlers, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Get("/api/v1/sessions", h.ListSessions)
	r.Get("/api/v1/sessions/{id}", h.SessionStatus)

	r.Get("/editor-socket", h.EditorWS)

	return r
}
