package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"journal/apperrors"
	"journal/database"
	"journal/logger"
	"journal/models"

	"github.com/go-chi/chi/v5/middleware"
)

type userContextKey struct{}

// CurrentUser returns the user resolved by the Identity middleware, if any.
func CurrentUser(r *http.Request) (models.User, bool) {
	user, ok := r.Context().Value(userContextKey{}).(models.User)
	return user, ok
}

// AccessLog writes one access log line per request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.AccessInfo("%s %s %s %d %dB %s reqid=%s",
				r.RemoteAddr, r.Method, r.URL.RequestURI(), ww.Status(), ww.BytesWritten(),
				time.Since(start).Round(time.Microsecond), middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}

// DBScope pins one database connection for the request and releases it when the handler
// returns, on every path.
func (h *Handler) DBScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped, release, err := h.Store.Acquire(r.Context())
		if err != nil {
			writeError(w, "DBScope", err)
			return
		}
		defer release()
		next.ServeHTTP(w, r.WithContext(database.NewContext(r.Context(), scoped)))
	})
}

// Identity resolves the session token from the cookie or an Authorization: Bearer header.
// The user is re-read from the store on every request. Invalid tokens leave the request
// anonymous; the cookie is cleared so the browser stops sending it.
func (h *Handler) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, fromCookie := h.sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := h.Tokens.Parse(token)
		if err != nil {
			logger.Debug("Identity: Rejected session token: %v", err)
			if fromCookie {
				h.clearSessionCookie(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.Auth.UserByID(r.Context(), userID)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrNotFound) {
				writeError(w, "Identity", err)
				return
			}
			logger.Info("Identity: Token for deleted user %d", userID)
			if fromCookie {
				h.clearSessionCookie(w)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, user)))
	})
}

func (h *Handler) sessionToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token), false
		}
	}
	if cookie, err := r.Cookie(h.Cookie.Name); err == nil {
		return cookie.Value, true
	}
	return "", false
}

// RequireLogin rejects anonymous requests with 401 and a redirect to the login view.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeError(w, "RequireLogin", apperrors.Unauthorized("please log in to access this page"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit throttles requests per client IP.
func (h *Handler) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter != nil && !h.Limiter.Allow(clientIP(r)) {
			logger.Warn("RateLimit: Too many requests from %s to %s", clientIP(r), r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, "RateLimit", apperrors.RateLimited("too many attempts, try again in a minute"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
