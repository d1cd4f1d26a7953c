package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterTagRoutes sets up the read-only tag routes. Tags are created and linked through the
// entry routes.
func RegisterTagRoutes(r chi.Router, h *Handler) {
	r.Get("/tags", h.ListTagsHandler)
	r.Get("/tags/{name}/entries", h.ListTagEntriesHandler)
}
