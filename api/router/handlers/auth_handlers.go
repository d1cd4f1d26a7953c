package handlers

import (
	"net/http"
	"time"

	"journal/logger"
	"journal/models"
)

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RegisterHandler creates an account.
// @Summary Register
// @Tags Auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param user body models.RegisterRequest true "Credentials"
// @Success 201 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "RegisterHandler", err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, "RegisterHandler", err)
		return
	}
	if _, err := h.Auth.Register(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, "RegisterHandler", err)
		return
	}
	writeFlashRedirect(w, http.StatusCreated, flashSuccess, "congrats you are registered", "/login")
}

// LoginHandler checks credentials and starts a session.
// @Summary Log in
// @Tags Auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param credentials body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "LoginHandler", err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, "LoginHandler", err)
		return
	}

	user, err := h.Auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, "LoginHandler", err)
		return
	}
	token, expiresAt, err := h.Tokens.Issue(user.ID)
	if err != nil {
		writeError(w, "LoginHandler", err)
		return
	}
	h.setSessionCookie(w, token, expiresAt)
	logger.Info("LoginHandler: User %d logged in", user.ID)
	writeJSON(w, http.StatusOK, models.LoginResponse{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
		Flash:     flash(flashSuccess, "you are logged in"),
	})
}

// LogoutHandler clears the session cookie.
// @Summary Log out
// @Tags Auth
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router /logout [post]
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeFlashRedirect(w, http.StatusOK, flashInfo, "You have been logged out", "/")
}

// MeHandler returns the logged-in user.
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	writeJSON(w, http.StatusOK, user)
}

// ChangePasswordHandler replaces the logged-in user's password.
// @Summary Change password
// @Tags Auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param passwords body models.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /me/password [put]
func (h *Handler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	var req models.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "ChangePasswordHandler", err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, "ChangePasswordHandler", err)
		return
	}
	if err := h.Auth.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, "ChangePasswordHandler", err)
		return
	}
	writeFlashRedirect(w, http.StatusOK, flashSuccess, "your password has been changed", "")
}
