package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"journal/apperrors"
	"journal/database"
	"journal/logger"
	"journal/models"

	"golang.org/x/crypto/bcrypt"
)

// InvalidCredentialsMessage is shown for both an unknown username and a wrong password.
const InvalidCredentialsMessage = "oops that email or password does not match our records"

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 8
	maxPasswordLen = 72
)

// AuthService registers users and checks their credentials.
type AuthService struct {
	store *database.Store
	cost  int
}

// NewAuthService returns an AuthService hashing with the given bcrypt cost;
// zero selects bcrypt.DefaultCost.
func NewAuthService(store *database.Store, cost int) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{store: store, cost: cost}
}

func (a *AuthService) Register(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	details := map[string]string{}
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		details["username"] = fmt.Sprintf("must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	if msg := checkPassword(password); msg != "" {
		details["password"] = msg
	}
	if len(details) > 0 {
		return models.User{}, apperrors.ValidationWithDetails("validation failed", details)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}
	user, err := a.store.Scoped(ctx).CreateUser(ctx, username, string(hash))
	if err != nil {
		return models.User{}, err
	}
	logger.Info("Register: Created user '%s' (ID: %d)", user.Username, user.ID)
	return user, nil
}

// Authenticate returns the user when the password matches. Unknown usernames and wrong passwords
// produce the same InvalidCredentials error.
func (a *AuthService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := a.store.Scoped(ctx).GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return models.User{}, apperrors.InvalidCredentials(InvalidCredentialsMessage)
		}
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Warn("Authenticate: Unusable password hash for user %d: %v", user.ID, err)
		}
		return models.User{}, apperrors.InvalidCredentials(InvalidCredentialsMessage)
	}
	return user, nil
}

// ChangePassword replaces a user's password after verifying the current one.
func (a *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	store := a.store.Scoped(ctx)
	user, err := store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperrors.ValidationWithDetails("validation failed",
			map[string]string{"current_password": "does not match"})
	}
	if msg := checkPassword(next); msg != "" {
		return apperrors.ValidationWithDetails("validation failed", map[string]string{"new_password": msg})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), a.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return store.UpdatePasswordHash(ctx, userID, string(hash))
}

// UserByID loads the user a session token points at.
func (a *AuthService) UserByID(ctx context.Context, id int64) (models.User, error) {
	return a.store.Scoped(ctx).GetUserByID(ctx, id)
}

// ListUsers returns every registered user.
func (a *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return a.store.Scoped(ctx).ListUsers(ctx)
}

func checkPassword(password string) string {
	if n := len(password); n < minPasswordLen || n > maxPasswordLen {
		return fmt.Sprintf("must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}
	return ""
}
