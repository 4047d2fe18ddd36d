// Package api wires the note service into an HTTP surface.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// token, when non-empty, enforces Bearer auth on the whole subtree.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, token string, sseHandler http.Handler) chi.Router {
	h := &handlers{svc: svc}

	r := chi.NewRouter()
	r.Use(AuthMiddleware(token))

	// Notes operations. Ids are always ten digits.
	r.Post("/notes", h.createNote)
	r.Get("/notes/{id:[0-9]{10}}", h.getNote)
	r.Delete("/notes/{id:[0-9]{10}}", h.deleteNote)
	r.Get("/notes/{id:[0-9]{10}}/backlinks", h.backlinks)
	r.Get("/notes/{id:[0-9]{10}}/diagnostics", h.diagnostics)
	r.Post("/notes/{id:[0-9]{10}}/reconcile", h.reconcile)
	r.Post("/notes/{id:[0-9]{10}}/format", h.formatNote)

	// Search.
	r.Get("/search", h.search)

	// Stateless formatting of posted text.
	r.Post("/format", h.formatText)

	// Link registry regeneration.
	r.Post("/links/regenerate", h.regenerateLinks)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
