package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterAuthRoutes sets up account and session routes.
func RegisterAuthRoutes(r chi.Router, h *Handler) {
	r.Group(func(limited chi.Router) {
		limited.Use(h.RateLimit)
		limited.Post("/register", h.RegisterHandler)
		limited.Post("/login", h.LoginHandler)
	})

	r.Group(func(authed chi.Router) {
		authed.Use(RequireLogin)
		authed.Post("/logout", h.LogoutHandler)
		authed.Get("/me", h.MeHandler)
		authed.Put("/me/password", h.ChangePasswordHandler)
	})
}
