package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"journal/apperrors"
	"journal/logger"
	"journal/models"
)

// GetOrCreateTag returns the tag with the given (trimmed) name, inserting it if absent.
// created reports whether this call inserted the row.
func (s *Store) GetOrCreateTag(ctx context.Context, name string) (models.Tag, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Tag{}, false, apperrors.Validation("tag name cannot be empty")
	}

	tag, err := s.GetTagByName(ctx, name)
	if err == nil {
		return tag, false, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return models.Tag{}, false, err
	}

	result, err := s.q.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		if isUniqueViolation(err) {
			// Another writer created it between the lookup and the insert.
			logger.Debug("GetOrCreateTag: Tag '%s' created concurrently, re-reading", name)
			tag, err = s.GetTagByName(ctx, name)
			return tag, false, err
		}
		logger.Error("GetOrCreateTag: Error executing insert for tag '%s': %v", name, err)
		return models.Tag{}, false, fmt.Errorf("executing insert tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		logger.Error("GetOrCreateTag: Error getting last insert ID for tag '%s': %v", name, err)
		return models.Tag{}, false, fmt.Errorf("getting last insert ID for tag: %w", err)
	}
	tag, err = s.GetTagByID(ctx, id)
	if err != nil {
		return models.Tag{}, false, err
	}
	logger.Debug("GetOrCreateTag: Created tag '%s' (ID: %d)", name, id)
	return tag, true, nil
}

// GetTagByName looks a tag up by exact, case-sensitive name.
func (s *Store) GetTagByName(ctx context.Context, name string) (models.Tag, error) {
	var tag models.Tag
	err := s.q.QueryRowContext(ctx, "SELECT id, name, created_at FROM tags WHERE name = ?", name).Scan(
		&tag.ID, &tag.Name, &tag.CreatedAt,
	)
	if err != nil {
		return tag, notFoundOr(err, "tag %q", name)
	}
	return tag, nil
}

// GetTagByID retrieves a single tag by its ID.
func (s *Store) GetTagByID(ctx context.Context, id int64) (models.Tag, error) {
	var tag models.Tag
	err := s.q.QueryRowContext(ctx, "SELECT id, name, created_at FROM tags WHERE id = ?", id).Scan(
		&tag.ID, &tag.Name, &tag.CreatedAt,
	)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("GetTagByID: Error querying tag ID %d: %v", id, err)
		}
		return tag, notFoundOr(err, "tag %d", id)
	}
	return tag, nil
}

// GetAllTags retrieves every tag ordered by name, with the number of entries carrying it.
// Orphaned tags are included with a count of zero.
func (s *Store) GetAllTags(ctx context.Context) ([]models.TagWithCount, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT t.id, t.name, t.created_at, COUNT(et.entry_id)
		FROM tags t
		LEFT JOIN entry_tags et ON et.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.name ASC`)
	if err != nil {
		logger.Error("GetAllTags: Error querying all tags: %v", err)
		return nil, fmt.Errorf("querying all tags: %w", err)
	}
	defer rows.Close()

	tags := []models.TagWithCount{}
	for rows.Next() {
		var tag models.TagWithCount
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt, &tag.EntryCount); err != nil {
			logger.Error("GetAllTags: Error scanning tag row: %v", err)
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// GetTagsForEntry returns the tags linked to an entry, ordered by name.
func (s *Store) GetTagsForEntry(ctx context.Context, entryID int64) ([]models.Tag, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT t.id, t.name, t.created_at
		FROM tags t
		JOIN entry_tags et ON et.tag_id = t.id
		WHERE et.entry_id = ?
		ORDER BY t.name ASC`, entryID)
	if err != nil {
		logger.Error("GetTagsForEntry: Error querying tags for entry %d: %v", entryID, err)
		return nil, fmt.Errorf("querying tags for entry %d: %w", entryID, err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			logger.Error("GetTagsForEntry: Error scanning tag for entry %d: %v", entryID, err)
			return nil, fmt.Errorf("scanning tag for entry %d: %w", entryID, err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// GetTagsForMultipleEntries fetches tags for a page of entries in one query.
// Entries without tags are absent from the map.
func (s *Store) GetTagsForMultipleEntries(ctx context.Context, entryIDs []int64) (map[int64][]models.Tag, error) {
	tagsMap := make(map[int64][]models.Tag)
	if len(entryIDs) == 0 {
		return tagsMap, nil
	}

	placeholders := make([]string, len(entryIDs))
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT et.entry_id, t.id, t.name, t.created_at
		FROM tags t
		JOIN entry_tags et ON et.tag_id = t.id
		WHERE et.entry_id IN (%s)
		ORDER BY et.entry_id, t.name ASC`, strings.Join(placeholders, ","))

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("GetTagsForMultipleEntries: Error querying tags: %v", err)
		return nil, fmt.Errorf("querying tags for entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID int64
		var tag models.Tag
		if err := rows.Scan(&entryID, &tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			logger.Error("GetTagsForMultipleEntries: Error scanning row: %v", err)
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tagsMap[entryID] = append(tagsMap[entryID], tag)
	}
	return tagsMap, rows.Err()
}

// AssociateTag links a tag to an entry. An existing link is left alone and reported as false.
func (s *Store) AssociateTag(ctx context.Context, entryID, tagID int64) (bool, error) {
	_, err := s.q.ExecContext(ctx, "INSERT INTO entry_tags (entry_id, tag_id) VALUES (?, ?)", entryID, tagID)
	if err != nil {
		if isUniqueViolation(err) {
			logger.Debug("AssociateTag: Entry %d already tagged with %d", entryID, tagID)
			return false, nil
		}
		logger.Error("AssociateTag: Error linking tag %d to entry %d: %v", tagID, entryID, err)
		return false, fmt.Errorf("associating tag %d with entry %d: %w", tagID, entryID, err)
	}
	return true, nil
}

// RemoveTagAssociation unlinks a tag from an entry. The tag row itself is kept.
// It reports whether a link was actually removed.
func (s *Store) RemoveTagAssociation(ctx context.Context, entryID, tagID int64) (bool, error) {
	result, err := s.q.ExecContext(ctx, "DELETE FROM entry_tags WHERE entry_id = ? AND tag_id = ?", entryID, tagID)
	if err != nil {
		logger.Error("RemoveTagAssociation: Error unlinking tag %d from entry %d: %v", tagID, entryID, err)
		return false, fmt.Errorf("removing tag association: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		logger.Error("RemoveTagAssociation: Error getting rows affected: %v", err)
		return false, fmt.Errorf("getting rows affected for tag association: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountTagAssociations returns how many entries carry the tag.
func (s *Store) CountTagAssociations(ctx context.Context, tagID int64) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM entry_tags WHERE tag_id = ?", tagID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting associations for tag %d: %w", tagID, err)
	}
	return n, nil
}
