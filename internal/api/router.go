package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, sessions *session.Manager, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, sessions)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Document codec.
	r.Post("/render", h.Render)
	r.Get("/schema", h.Schema)

	// Link card metadata.
	r.Post("/metadata", h.Metadata)

	// AI generation.
	r.Post("/ai_generate", h.Generate)

	// Document sessions.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/{name}", h.GetDocument)
	r.Put("/documents/{name}", h.UpdateDocument)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
