package models

import "time"

// User is an account that owns journal entries.
type User struct {
	ID           int64     `json:"id" readOnly:"true"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at" readOnly:"true"`
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Username string `json:"username" validate:"notblank,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest replaces the current user's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Flash     *Flash    `json:"flash,omitempty"`
}
