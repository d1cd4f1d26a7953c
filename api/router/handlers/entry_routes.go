package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterEntryRoutes sets up the journal entry routes. Reads are public; mutations need a
// logged-in user and ownership is checked by the service.
func RegisterEntryRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.ListEntriesHandler)

	r.Route("/entries", func(subRouter chi.Router) {
		subRouter.Get("/", h.ListEntriesHandler)
		subRouter.With(RequireLogin).Post("/", h.CreateEntryHandler)

		subRouter.Route("/{entryID}", func(entryRouter chi.Router) {
			entryRouter.Get("/", h.GetEntryHandler)
			entryRouter.Group(func(authed chi.Router) {
				authed.Use(RequireLogin)
				authed.Put("/", h.EditEntryHandler)
				authed.Patch("/", h.EditEntryHandler)
				authed.Delete("/", h.DeleteEntryHandler)
				authed.Put("/tags", h.ReplaceEntryTagsHandler)
			})
		})
	})

	r.With(RequireLogin).Get("/user/entries", h.ListUserEntriesHandler)
}
