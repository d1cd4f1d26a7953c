package handlers

import (
	"net/http"

	"journal/logger"

	"github.com/go-chi/chi/v5"
)

// RegisterHealthRoutes sets up the liveness and version routes.
func RegisterHealthRoutes(r chi.Router, h *Handler) {
	r.Get("/health", h.healthCheckHandler)
	r.Get("/version", GetVersionHandler)
}

func (h *Handler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		logger.Error("healthCheckHandler: Database unreachable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
