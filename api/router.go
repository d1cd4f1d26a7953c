package api

import (
	"io"
	"net/http"

	"journal/api/router/handlers"
	"journal/logger"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configures the cross-cutting middleware of the router.
type Options struct {
	CORSAllowedOrigins []string
}

// NewRouter builds the HTTP handler serving the JSON API under /api.
func NewRouter(h *handlers.Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(handlers.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(newCompressor().Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.Use(h.DBScope)
		apiRouter.Use(h.Identity)

		handlers.RegisterHealthRoutes(apiRouter, h)
		handlers.RegisterAuthRoutes(apiRouter, h)
		handlers.RegisterEntryRoutes(apiRouter, h)
		handlers.RegisterTagRoutes(apiRouter, h)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("API CATCH-ALL: Unhandled route: %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})

	return r
}

// newCompressor compresses JSON responses with brotli, gzip or deflate, whichever the client
// prefers.
func newCompressor() *middleware.Compressor {
	compressor := middleware.NewCompressor(5, "application/json", "text/plain")
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return compressor
}
