package core

import (
	"context"
	"fmt"

	"journal/database"
	"journal/logger"
	"journal/models"
)

// ReconcileResult describes what a reconcile changed.
type ReconcileResult struct {
	Added     []string
	Removed   []string
	Unchanged []string
	// Tags is the entry's tag set after the reconcile, ordered by name.
	Tags []models.Tag
}

// Writes is the number of association rows inserted or deleted.
func (r *ReconcileResult) Writes() int {
	return len(r.Added) + len(r.Removed)
}

// AssociationManager keeps an entry's tag links equal to a submitted tag string.
type AssociationManager struct {
	store *database.Store
}

func NewAssociationManager(store *database.Store) *AssociationManager {
	return &AssociationManager{store: store}
}

// Reconcile makes the entry's linked tags exactly the names in raw. Links no longer named are
// removed (the tag rows stay), new names are created on demand and linked, and names already
// linked are not touched. The whole operation runs in one transaction; an empty raw string
// unlinks everything. A missing entry is NotFound.
func (m *AssociationManager) Reconcile(ctx context.Context, entryID int64, raw string) (*ReconcileResult, error) {
	var result *ReconcileResult
	err := m.store.Scoped(ctx).WithTx(ctx, func(tx *database.Store) error {
		if _, err := tx.GetEntryByID(ctx, entryID); err != nil {
			return err
		}
		var err error
		result, err = reconcileTx(ctx, tx, entryID, raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reconcileTx is Reconcile for callers already holding a transaction.
func reconcileTx(ctx context.Context, tx *database.Store, entryID int64, raw string) (*ReconcileResult, error) {
	submitted := ParseTagNames(raw)

	current, err := tx.GetTagsForEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("loading tags of entry %d: %w", entryID, err)
	}

	wanted := make(map[string]struct{}, len(submitted))
	for _, name := range submitted {
		wanted[name] = struct{}{}
	}
	linked := make(map[string]struct{}, len(current))

	result := &ReconcileResult{Added: []string{}, Removed: []string{}, Unchanged: []string{}}
	for _, tag := range current {
		linked[tag.Name] = struct{}{}
		if _, keep := wanted[tag.Name]; keep {
			result.Unchanged = append(result.Unchanged, tag.Name)
			continue
		}
		removed, err := tx.RemoveTagAssociation(ctx, entryID, tag.ID)
		if err != nil {
			return nil, err
		}
		if removed {
			result.Removed = append(result.Removed, tag.Name)
		}
	}

	for _, name := range submitted {
		if _, ok := linked[name]; ok {
			continue
		}
		tag, _, err := tx.GetOrCreateTag(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolving tag %q: %w", name, err)
		}
		inserted, err := tx.AssociateTag(ctx, entryID, tag.ID)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.Added = append(result.Added, name)
		}
	}

	result.Tags, err = tx.GetTagsForEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("reloading tags of entry %d: %w", entryID, err)
	}
	if result.Writes() > 0 {
		logger.Debug("Reconcile: entry %d added=%v removed=%v", entryID, result.Added, result.Removed)
	}
	return result, nil
}
