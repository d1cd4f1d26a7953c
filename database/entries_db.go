package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"journal/logger"
	"journal/models"

	"github.com/tidwall/gjson"
)

const entryColumns = `e.id, e.user_id, u.username, e.title, e.entry_date, e.time_spent,
	e.knowledge, e.resources, e.created_at, e.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.Entry, error) {
	var (
		e         models.Entry
		date      string
		seconds   int64
		resources string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Username, &e.Title, &date, &seconds,
		&e.Knowledge, &resources, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return e, err
	}
	parsed, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return e, fmt.Errorf("parsing entry_date %q of entry %d: %w", date, e.ID, err)
	}
	e.Date = parsed
	e.TimeSpent = time.Duration(seconds) * time.Second
	e.Resources = decodeResources(resources)
	return e, nil
}

func encodeResources(resources []string) (string, error) {
	if resources == nil {
		resources = []string{}
	}
	b, err := json.Marshal(resources)
	if err != nil {
		return "", fmt.Errorf("encoding resources: %w", err)
	}
	return string(b), nil
}

func decodeResources(raw string) []string {
	items := gjson.Parse(raw).Array()
	resources := make([]string, 0, len(items))
	for _, item := range items {
		resources = append(resources, item.String())
	}
	return resources
}

// CreateEntry inserts an entry owned by userID and returns the generated id.
func (s *Store) CreateEntry(ctx context.Context, userID int64, f models.EntryFields) (int64, error) {
	resources, err := encodeResources(f.Resources)
	if err != nil {
		return 0, err
	}
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO entries (user_id, title, entry_date, time_spent, knowledge, resources)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, f.Title, f.Date.Format(models.DateLayout), int64(f.TimeSpent/time.Second), f.Knowledge, resources)
	if err != nil {
		logger.Error("CreateEntry: Error inserting entry for user %d: %v", userID, err)
		return 0, fmt.Errorf("inserting entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		logger.Error("CreateEntry: Error getting last insert ID: %v", err)
		return 0, fmt.Errorf("getting last insert ID for entry: %w", err)
	}
	return id, nil
}

// GetEntryByID loads an entry with its author's username.
func (s *Store) GetEntryByID(ctx context.Context, id int64) (models.Entry, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+entryColumns+`
		FROM entries e JOIN users u ON u.id = e.user_id
		WHERE e.id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("GetEntryByID: Error loading entry %d: %v", id, err)
		}
		return e, notFoundOr(err, "entry %d", id)
	}
	return e, nil
}

// UpdateEntry rewrites the editable fields of an entry in a single statement and bumps
// updated_at. It reports whether a row was updated.
func (s *Store) UpdateEntry(ctx context.Context, id int64, f models.EntryFields) (bool, error) {
	resources, err := encodeResources(f.Resources)
	if err != nil {
		return false, err
	}
	result, err := s.q.ExecContext(ctx, `
		UPDATE entries
		SET title = ?, entry_date = ?, time_spent = ?, knowledge = ?, resources = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		f.Title, f.Date.Format(models.DateLayout), int64(f.TimeSpent/time.Second), f.Knowledge, resources, id)
	if err != nil {
		logger.Error("UpdateEntry: Error updating entry %d: %v", id, err)
		return false, fmt.Errorf("updating entry %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		logger.Error("UpdateEntry: Error getting rows affected for entry %d: %v", id, err)
		return false, fmt.Errorf("getting rows affected for entry %d: %w", id, err)
	}
	return n > 0, nil
}

// DeleteEntry removes an entry; its entry_tags rows cascade. It returns the number of rows
// deleted, which is zero when the entry was already gone.
func (s *Store) DeleteEntry(ctx context.Context, id int64) (int64, error) {
	result, err := s.q.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		logger.Error("DeleteEntry: Error deleting entry %d: %v", id, err)
		return 0, fmt.Errorf("deleting entry %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		logger.Error("DeleteEntry: Error getting rows affected for entry %d: %v", id, err)
		return 0, fmt.Errorf("getting rows affected for entry %d: %w", id, err)
	}
	return n, nil
}

// ListEntries returns a page of all entries, newest first, and the total count.
func (s *Store) ListEntries(ctx context.Context, limit, offset int) ([]models.Entry, int, error) {
	return s.listEntries(ctx, "", nil, limit, offset)
}

// ListEntriesByUser returns a page of one user's entries, newest first, and their total count.
func (s *Store) ListEntriesByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Entry, int, error) {
	return s.listEntries(ctx, "WHERE e.user_id = ?", []any{userID}, limit, offset)
}

// ListEntriesByTag returns a page of the entries linked to the named tag and their total count.
func (s *Store) ListEntriesByTag(ctx context.Context, tagName string, limit, offset int) ([]models.Entry, int, error) {
	where := "WHERE e.id IN (SELECT et.entry_id FROM entry_tags et JOIN tags t ON t.id = et.tag_id WHERE t.name = ?)"
	return s.listEntries(ctx, where, []any{tagName}, limit, offset)
}

func (s *Store) listEntries(ctx context.Context, where string, args []any, limit, offset int) ([]models.Entry, int, error) {
	var total int
	countQuery := "SELECT COUNT(*) FROM entries e " + where
	if err := s.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		logger.Error("listEntries: Error counting entries: %v", err)
		return nil, 0, fmt.Errorf("counting entries: %w", err)
	}

	query := `SELECT ` + entryColumns + `
		FROM entries e JOIN users u ON u.id = e.user_id ` + where + `
		ORDER BY e.entry_date DESC, e.id DESC
		LIMIT ? OFFSET ?`
	rows, err := s.q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		logger.Error("listEntries: Error querying entries: %v", err)
		return nil, 0, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			logger.Error("listEntries: Error scanning entry row: %v", err)
			return nil, 0, fmt.Errorf("scanning entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating entry rows: %w", err)
	}
	return entries, total, nil
}
