package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/status", h.Status)

	// Notes and their relations.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Get("/related/*", h.Related)
	r.Post("/preview/*", h.Preview)

	// Tags.
	r.Get("/tags", h.ListTags)
	r.Get("/tags/*", h.TagNotes)

	// Graph.
	r.Get("/graph", h.Graph)

	return r
}
