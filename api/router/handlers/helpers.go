package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"journal/apperrors"
	"journal/core"
	"journal/database"
	"journal/logger"
	"journal/models"
	"journal/ratelimit"
	"journal/validation"

	"github.com/go-chi/chi/v5"
)

// Handler carries the services the HTTP handlers depend on.
type Handler struct {
	Store     *database.Store
	Journal   *core.JournalService
	Auth      *core.AuthService
	Tokens    *core.TokenIssuer
	Validator *validation.Validator
	Limiter   *ratelimit.KeyedRateLimiter
	Cookie    CookieSettings
}

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

const (
	flashSuccess = "success"
	flashError   = "error"
	flashInfo    = "info"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("writeJSON: Error encoding response: %v", err)
	}
}

func flash(category, message string) *models.Flash {
	return &models.Flash{Category: category, Message: message}
}

// writeFlashRedirect answers with a flash message and the path the client should go to.
func writeFlashRedirect(w http.ResponseWriter, status int, category, message, redirect string) {
	writeJSON(w, status, models.MessageResponse{Flash: flash(category, message), Redirect: redirect})
}

// writeError maps an error to its response. NotFound and Forbidden become a flash plus a
// redirect to the index; validation errors carry per-field details; anything unexpected is
// logged and reported as a 500 without leaking the cause.
func writeError(w http.ResponseWriter, handlerName string, err error) {
	var appErr *apperrors.Error
	if !apperrors.As(err, &appErr) {
		logger.Error("%s: %v", handlerName, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Message: "something went wrong",
			Code:    string(apperrors.CodeInternal),
		})
		return
	}

	resp := models.ErrorResponse{Message: appErr.Message, Code: string(appErr.Code)}
	switch appErr.Code {
	case apperrors.CodeNotFound, apperrors.CodeForbidden:
		logger.Info("%s: %v", handlerName, err)
		resp.Flash = flash(flashError, appErr.Message)
		resp.Redirect = "/"
	case apperrors.CodeValidation:
		if details, ok := appErr.Details.(map[string]string); ok {
			resp.Details = details
		}
	case apperrors.CodeUnauthorized:
		resp.Flash = flash(flashError, appErr.Message)
		resp.Redirect = "/login"
	case apperrors.CodeInvalidCredentials, apperrors.CodeAlreadyExists, apperrors.CodeRateLimited:
		resp.Flash = flash(flashError, appErr.Message)
	default:
		logger.Error("%s: %v", handlerName, err)
		resp.Message = "something went wrong"
	}
	writeJSON(w, appErr.HTTPStatus(), resp)
}

// entryIDParam reads the {entryID} URL parameter.
func entryIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "entryID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NotFoundf("entry %q not found", raw)
	}
	return id, nil
}

// pageParams reads ?page= and ?limit=; missing or malformed values fall back to the defaults.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

func newEntryListResponse(p core.EntryPage) models.EntryListResponse {
	views := make([]models.EntryView, len(p.Entries))
	for i, e := range p.Entries {
		views[i] = models.NewEntryView(e)
	}
	return models.EntryListResponse{
		Page:         p.Page,
		Limit:        p.Limit,
		TotalRecords: p.TotalRecords,
		TotalPages:   p.TotalPages(),
		Entries:      views,
	}
}

func entryPath(id int64) string {
	return fmt.Sprintf("/entries/%d", id)
}
