package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"journal/apperrors"
	"journal/database"
	"journal/logger"
	"journal/models"
	"journal/validation"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// JournalService orchestrates entry create, edit, delete and reads. Mutations check ownership
// and run in a single transaction together with the tag reconcile.
type JournalService struct {
	store     *database.Store
	validator *validation.Validator
	pageSize  int
}

// NewJournalService builds the workflow. A nil validator skips struct-tag checks on submitted
// forms; the field rules of the workflow itself always apply.
func NewJournalService(store *database.Store, v *validation.Validator, pageSize int) *JournalService {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return &JournalService{store: store, validator: v, pageSize: pageSize}
}

// EntryPage is one page of a listing.
type EntryPage struct {
	Entries      []models.EntryWithTags
	Page         int
	Limit        int
	TotalRecords int
}

func (p EntryPage) TotalPages() int {
	if p.Limit <= 0 || p.TotalRecords == 0 {
		return 0
	}
	return (p.TotalRecords + p.Limit - 1) / p.Limit
}

// EntryDetail is a single entry with its rendered knowledge.
type EntryDetail struct {
	models.EntryWithTags
	KnowledgeHTML string
}

// FieldsFromForm converts a validated entry form into entry fields. TimeSpent is read as
// minutes and Resources is split into one resource per non-blank line.
func FieldsFromForm(form models.EntryForm) (models.EntryFields, error) {
	date, err := time.Parse(models.DateLayout, strings.TrimSpace(form.Date))
	if err != nil {
		return models.EntryFields{}, apperrors.ValidationWithDetails("validation failed",
			map[string]string{"date": "must be a date formatted as " + models.DateLayout})
	}
	minutes, err := strconv.ParseFloat(strings.TrimSpace(form.TimeSpent), 64)
	if err != nil || minutes < 0 {
		return models.EntryFields{}, apperrors.ValidationWithDetails("validation failed",
			map[string]string{"time_spent": "must be a non-negative number of minutes"})
	}
	return models.EntryFields{
		Title:     form.Title,
		Date:      date,
		TimeSpent: time.Duration(minutes * float64(time.Minute)).Round(time.Second),
		Knowledge: form.Knowledge,
		Resources: splitResources(form.Resources),
	}, nil
}

func splitResources(raw string) []string {
	resources := []string{}
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			resources = append(resources, line)
		}
	}
	return resources
}

func normalizeFields(f models.EntryFields) (models.EntryFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	details := map[string]string{}
	if f.Title == "" {
		details["title"] = "is required"
	}
	if f.Date.IsZero() {
		details["date"] = "is required"
	}
	if f.TimeSpent < 0 {
		details["time_spent"] = "must not be negative"
	}
	if strings.TrimSpace(f.Knowledge) == "" {
		details["knowledge"] = "is required"
	}
	if len(details) > 0 {
		return f, apperrors.ValidationWithDetails("validation failed", details)
	}
	if f.Resources == nil {
		f.Resources = []string{}
	}
	return f, nil
}

// CreateEntry stores a new entry owned by userID. When tags is non-nil the entry's tags are
// reconciled to it in the same transaction.
func (s *JournalService) CreateEntry(ctx context.Context, userID int64, fields models.EntryFields, tags *string) (models.EntryWithTags, error) {
	fields, err := normalizeFields(fields)
	if err != nil {
		return models.EntryWithTags{}, err
	}

	var created models.EntryWithTags
	err = s.store.Scoped(ctx).WithTx(ctx, func(tx *database.Store) error {
		id, err := tx.CreateEntry(ctx, userID, fields)
		if err != nil {
			return err
		}
		if tags != nil {
			if _, err := reconcileTx(ctx, tx, id, *tags); err != nil {
				return err
			}
		}
		created, err = loadWithTags(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.EntryWithTags{}, err
	}
	logger.Info("CreateEntry: User %d created entry %d", userID, created.ID)
	return created, nil
}

// EditEntry applies an optional field update and an optional tag reconcile to an entry owned by
// actingUserID. The entry is loaded and ownership checked before the fields are looked at, so a
// missing entry is NotFound and a non-owner gets Forbidden whatever was submitted. Nothing is
// written on error. The returned ReconcileResult is nil when tags was not submitted.
func (s *JournalService) EditEntry(ctx context.Context, actingUserID, entryID int64, fields *models.EntryFields, tags *string) (models.EntryWithTags, *ReconcileResult, error) {
	var prepare func() (models.EntryFields, error)
	if fields != nil {
		f := *fields
		prepare = func() (models.EntryFields, error) { return f, nil }
	}
	return s.edit(ctx, actingUserID, entryID, prepare, tags)
}

// EditEntryForm is EditEntry for a raw submitted form. The form is validated and converted only
// once the caller is known to own the entry.
func (s *JournalService) EditEntryForm(ctx context.Context, actingUserID, entryID int64, form *models.EntryForm, tags *string) (models.EntryWithTags, *ReconcileResult, error) {
	var prepare func() (models.EntryFields, error)
	if form != nil {
		f := *form
		prepare = func() (models.EntryFields, error) { return s.ParseForm(f) }
	}
	return s.edit(ctx, actingUserID, entryID, prepare, tags)
}

// ParseForm validates a submitted entry form and converts it into entry fields.
func (s *JournalService) ParseForm(form models.EntryForm) (models.EntryFields, error) {
	if s.validator != nil {
		if err := s.validator.Validate(form); err != nil {
			return models.EntryFields{}, err
		}
	}
	return FieldsFromForm(form)
}

func (s *JournalService) edit(ctx context.Context, actingUserID, entryID int64, prepare func() (models.EntryFields, error), tags *string) (models.EntryWithTags, *ReconcileResult, error) {
	var (
		edited    models.EntryWithTags
		reconcile *ReconcileResult
	)
	err := s.store.Scoped(ctx).WithTx(ctx, func(tx *database.Store) error {
		if err := ensureOwner(ctx, tx, actingUserID, entryID); err != nil {
			return err
		}
		if prepare != nil {
			fields, err := prepare()
			if err != nil {
				return err
			}
			if fields, err = normalizeFields(fields); err != nil {
				return err
			}
			if _, err := tx.UpdateEntry(ctx, entryID, fields); err != nil {
				return err
			}
		}
		if tags != nil {
			var err error
			if reconcile, err = reconcileTx(ctx, tx, entryID, *tags); err != nil {
				return err
			}
		}
		var err error
		edited, err = loadWithTags(ctx, tx, entryID)
		return err
	})
	if err != nil {
		return models.EntryWithTags{}, nil, err
	}
	logger.Info("EditEntry: User %d edited entry %d", actingUserID, entryID)
	return edited, reconcile, nil
}

// DeleteEntry removes an entry owned by actingUserID together with its tag links; tags stay.
// It returns NotFound when the entry does not exist.
func (s *JournalService) DeleteEntry(ctx context.Context, actingUserID, entryID int64) error {
	err := s.store.Scoped(ctx).WithTx(ctx, func(tx *database.Store) error {
		if err := ensureOwner(ctx, tx, actingUserID, entryID); err != nil {
			return err
		}
		n, err := tx.DeleteEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if n == 0 {
			logger.Debug("DeleteEntry: Entry %d vanished before delete", entryID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("DeleteEntry: User %d deleted entry %d", actingUserID, entryID)
	return nil
}

func ensureOwner(ctx context.Context, tx *database.Store, actingUserID, entryID int64) error {
	entry, err := tx.GetEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.UserID != actingUserID {
		logger.Warn("ensureOwner: User %d tried to modify entry %d owned by %d", actingUserID, entryID, entry.UserID)
		return apperrors.Forbidden("you are not allowed to change this entry")
	}
	return nil
}

// GetEntry returns an entry with its tags and rendered knowledge.
func (s *JournalService) GetEntry(ctx context.Context, entryID int64) (EntryDetail, error) {
	entry, err := loadWithTags(ctx, s.store.Scoped(ctx), entryID)
	if err != nil {
		return EntryDetail{}, err
	}
	html, err := RenderKnowledge(entry.Knowledge)
	if err != nil {
		return EntryDetail{}, fmt.Errorf("rendering knowledge of entry %d: %w", entryID, err)
	}
	return EntryDetail{EntryWithTags: entry, KnowledgeHTML: html}, nil
}

// ListEntries returns a page of all entries, newest first.
func (s *JournalService) ListEntries(ctx context.Context, page, limit int) (EntryPage, error) {
	page, limit = s.clampPage(page, limit)
	store := s.store.Scoped(ctx)
	entries, total, err := store.ListEntries(ctx, limit, (page-1)*limit)
	if err != nil {
		return EntryPage{}, err
	}
	return s.buildPage(ctx, store, entries, total, page, limit)
}

// ListUserEntries returns a page of one user's entries, newest first.
func (s *JournalService) ListUserEntries(ctx context.Context, userID int64, page, limit int) (EntryPage, error) {
	page, limit = s.clampPage(page, limit)
	store := s.store.Scoped(ctx)
	entries, total, err := store.ListEntriesByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return EntryPage{}, err
	}
	return s.buildPage(ctx, store, entries, total, page, limit)
}

// ListEntriesByTag returns a page of the entries carrying the named tag.
// An unknown tag is NotFound; a known tag with no entries is an empty page.
func (s *JournalService) ListEntriesByTag(ctx context.Context, name string, page, limit int) (EntryPage, error) {
	name = strings.TrimSpace(name)
	page, limit = s.clampPage(page, limit)
	store := s.store.Scoped(ctx)
	if _, err := store.GetTagByName(ctx, name); err != nil {
		return EntryPage{}, err
	}
	entries, total, err := store.ListEntriesByTag(ctx, name, limit, (page-1)*limit)
	if err != nil {
		return EntryPage{}, err
	}
	return s.buildPage(ctx, store, entries, total, page, limit)
}

// ListTags returns every tag with its usage count, ordered by name.
func (s *JournalService) ListTags(ctx context.Context) ([]models.TagWithCount, error) {
	return s.store.Scoped(ctx).GetAllTags(ctx)
}

func (s *JournalService) clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func (s *JournalService) buildPage(ctx context.Context, store *database.Store, entries []models.Entry, total, page, limit int) (EntryPage, error) {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	tagsMap, err := store.GetTagsForMultipleEntries(ctx, ids)
	if err != nil {
		return EntryPage{}, err
	}

	withTags := make([]models.EntryWithTags, len(entries))
	for i, e := range entries {
		tags := tagsMap[e.ID]
		if tags == nil {
			tags = []models.Tag{}
		}
		withTags[i] = models.EntryWithTags{Entry: e, Tags: tags}
	}
	return EntryPage{Entries: withTags, Page: page, Limit: limit, TotalRecords: total}, nil
}

func loadWithTags(ctx context.Context, store *database.Store, entryID int64) (models.EntryWithTags, error) {
	entry, err := store.GetEntryByID(ctx, entryID)
	if err != nil {
		return models.EntryWithTags{}, err
	}
	tags, err := store.GetTagsForEntry(ctx, entryID)
	if err != nil {
		return models.EntryWithTags{}, err
	}
	return models.EntryWithTags{Entry: entry, Tags: tags}, nil
}
