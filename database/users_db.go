package database

import (
	"context"
	"fmt"

	"journal/apperrors"
	"journal/logger"
	"journal/models"
)

// CreateUser inserts a user with an already hashed password.
// A taken username is reported as AlreadyExists.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	result, err := s.q.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)", username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperrors.AlreadyExistsf("username %q is already taken", username)
		}
		logger.Error("CreateUser: Error inserting user '%s': %v", username, err)
		return models.User{}, fmt.Errorf("inserting user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("getting last insert ID for user: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.q.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		return u, notFoundOr(err, "user %d", id)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.q.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		return u, notFoundOr(err, "user %q", username)
	}
	return u, nil
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT id, username, password_hash, created_at FROM users ORDER BY username")
	if err != nil {
		logger.Error("ListUsers: Error querying users: %v", err)
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	result, err := s.q.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, userID)
	if err != nil {
		logger.Error("UpdatePasswordHash: Error updating user %d: %v", userID, err)
		return fmt.Errorf("updating password: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected for user %d: %w", userID, err)
	}
	if n == 0 {
		return apperrors.NotFoundf("user %d not found", userID)
	}
	return nil
}
