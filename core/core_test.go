package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"journal/apperrors"
	"journal/database"
	"journal/models"
	"journal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	store   *database.Store
	journal *JournalService
	assoc   *AssociationManager
	auth    *AuthService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return &testEnv{
		store:   store,
		journal: NewJournalService(store, validation.New(), 10),
		assoc:   NewAssociationManager(store),
		auth:    NewAuthService(store, bcrypt.MinCost),
	}
}

func (env *testEnv) user(t *testing.T, name string) models.User {
	t.Helper()
	u, err := env.auth.Register(context.Background(), name, "correct horse")
	require.NoError(t, err)
	return u
}

func sampleFields(title string) models.EntryFields {
	return models.EntryFields{
		Title:     title,
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		TimeSpent: 45 * time.Minute,
		Knowledge: "# Notes\n\nselect blocks on several channels",
		Resources: []string{"https://go.dev/doc/effective_go"},
	}
}

func strPtr(s string) *string { return &s }

func tagNames(tags []models.Tag) []string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}

func TestParseTagNames(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{" , ,", []string{}},
		{"go", []string{"go"}},
		{" go ,go ", []string{"go"}},
		{"go, concurrency", []string{"go", "concurrency"}},
		{"b,a,b,c,a", []string{"b", "a", "c"}},
		{"Go,go", []string{"Go", "go"}},
		{"web dev , sql", []string{"web dev", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTagNames(tt.raw))
		})
	}
	assert.Equal(t, "go, sql", JoinTagNames([]string{"go", "sql"}))
}

func TestReconcile_ReadBackMatchesSubmitted(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), nil)
	require.NoError(t, err)

	result, err := env.assoc.Reconcile(ctx, entry.ID, "sql , go,testing, go")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sql", "go", "testing"}, result.Added)
	assert.Equal(t, []string{"go", "sql", "testing"}, tagNames(result.Tags))

	tags, err := env.store.GetTagsForEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql", "testing"}, tagNames(tags))
}

func TestReconcile_Idempotent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), nil)
	require.NoError(t, err)

	first, err := env.assoc.Reconcile(ctx, entry.ID, "go, concurrency")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Writes())

	second, err := env.assoc.Reconcile(ctx, entry.ID, "concurrency,go")
	require.NoError(t, err)
	assert.Zero(t, second.Writes())
	assert.ElementsMatch(t, []string{"go", "concurrency"}, second.Unchanged)
}

func TestReconcile_EmptyRemovesAllLinks(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), strPtr("go, sql"))
	require.NoError(t, err)
	require.Len(t, entry.Tags, 2)

	result, err := env.assoc.Reconcile(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"go", "sql"}, result.Removed)
	assert.Empty(t, result.Tags)

	reloaded, err := env.journal.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Study Go", reloaded.Title)
	assert.Empty(t, reloaded.Tags)

	// Tag rows survive as orphans.
	tags, err := env.journal.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestReconcile_WhitespaceDuplicatesCollapse(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), strPtr(" go ,go "))
	require.NoError(t, err)
	require.Len(t, entry.Tags, 1)
	assert.Equal(t, "go", entry.Tags[0].Name)

	all, err := env.journal.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].EntryCount)
}

func TestStudyGoScenario(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), strPtr("go, concurrency"))
	require.NoError(t, err)
	assert.Equal(t, []string{"concurrency", "go"}, tagNames(entry.Tags))

	edited, result, err := env.journal.EditEntry(ctx, alice.ID, entry.ID, nil, strPtr("go, testing"))
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "testing"}, tagNames(edited.Tags))
	assert.Equal(t, []string{"testing"}, result.Added)
	assert.Equal(t, []string{"concurrency"}, result.Removed)
	assert.Equal(t, []string{"go"}, result.Unchanged)

	concurrency, err := env.store.GetTagByName(ctx, "concurrency")
	require.NoError(t, err)
	n, err := env.store.CountTagAssociations(ctx, concurrency.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateEntry_CapturesInsertedID(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	// Two entries with the same title must each get their own tags.
	first, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Daily"), strPtr("mon"))
	require.NoError(t, err)
	second, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Daily"), strPtr("tue"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	firstTags, err := env.store.GetTagsForEntry(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"mon"}, tagNames(firstTags))
	secondTags, err := env.store.GetTagsForEntry(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tue"}, tagNames(secondTags))
}

func TestCreateEntry_Validation(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.user(t, "alice")

	fields := sampleFields("   ")
	fields.Knowledge = ""
	_, err := env.journal.CreateEntry(context.Background(), alice.ID, fields, strPtr("go"))
	require.ErrorIs(t, err, apperrors.ErrValidation)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	details := appErr.Details.(map[string]string)
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "knowledge")

	tags, err := env.journal.ListTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestEditEntry_NonOwnerForbidden(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), strPtr("go"))
	require.NoError(t, err)

	changed := sampleFields("Hijacked")
	_, _, err = env.journal.EditEntry(ctx, bob.ID, entry.ID, &changed, strPtr("evil"))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	reloaded, err := env.journal.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Study Go", reloaded.Title)
	assert.Equal(t, alice.ID, reloaded.UserID)
	assert.Equal(t, []string{"go"}, tagNames(reloaded.Tags))

	_, err = env.store.GetTagByName(ctx, "evil")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEditEntry_FieldsOnlyKeepsTags(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), strPtr("go"))
	require.NoError(t, err)

	changed := sampleFields("Study Go generics")
	edited, result, err := env.journal.EditEntry(ctx, alice.ID, entry.ID, &changed, nil)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "Study Go generics", edited.Title)
	assert.Equal(t, []string{"go"}, tagNames(edited.Tags))
}

func TestEditEntry_Missing(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.user(t, "alice")

	_, _, err := env.journal.EditEntry(context.Background(), alice.ID, 999, nil, strPtr("go"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEditEntry_OwnershipCheckedBeforeFields(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), nil)
	require.NoError(t, err)

	_, _, err = env.journal.EditEntry(ctx, bob.ID, entry.ID, &models.EntryFields{}, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, _, err = env.journal.EditEntry(ctx, bob.ID, 9999, &models.EntryFields{}, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	blank := &models.EntryForm{Title: " ", Date: "someday", TimeSpent: "x"}
	_, _, err = env.journal.EditEntryForm(ctx, bob.ID, entry.ID, blank, strPtr("evil"))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, _, err = env.journal.EditEntryForm(ctx, alice.ID, entry.ID, blank, strPtr("go"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	reloaded, err := env.journal.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Study Go", reloaded.Title)
	assert.Empty(t, reloaded.Tags)
}

func TestEditEntryForm_Owner(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), nil)
	require.NoError(t, err)

	form := &models.EntryForm{Title: "Study Go again", Date: "2024-03-02", TimeSpent: "30", Knowledge: "generics"}
	edited, _, err := env.journal.EditEntryForm(ctx, alice.ID, entry.ID, form, strPtr("go"))
	require.NoError(t, err)
	assert.Equal(t, "Study Go again", edited.Title)
	assert.Equal(t, 30*time.Minute, edited.TimeSpent)
	assert.Equal(t, []string{"go"}, tagNames(edited.Tags))
}

func TestEditEntry_ConcurrentTagEditsSerialize(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), strPtr("go"))
	require.NoError(t, err)

	const workers = 16
	submitted := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		submitted[i] = fmt.Sprintf("shared, tag%d, extra%d", i, i%3)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scoped, release, err := env.store.Acquire(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			defer release()
			_, _, errs[i] = env.journal.EditEntry(database.NewContext(ctx, scoped), alice.ID, entry.ID, nil, strPtr(submitted[i]))
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "edit %d", i)
	}

	final, err := env.store.GetTagsForEntry(ctx, entry.ID)
	require.NoError(t, err)
	got := tagNames(final)

	matched := false
	for _, raw := range submitted {
		want := ParseTagNames(raw)
		sort.Strings(want)
		if assert.ObjectsAreEqual(want, got) {
			matched = true
			break
		}
	}
	assert.True(t, matched, "final tags %v match none of the submitted sets", got)
}

func TestReconcile_MissingEntry(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.assoc.Reconcile(ctx, 999, "go, ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = env.store.GetTagByName(ctx, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteEntry(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	entry, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("Study Go"), strPtr("go, sql"))
	require.NoError(t, err)

	assert.ErrorIs(t, env.journal.DeleteEntry(ctx, bob.ID, entry.ID), apperrors.ErrForbidden)

	require.NoError(t, env.journal.DeleteEntry(ctx, alice.ID, entry.ID))
	_, err = env.journal.GetEntry(ctx, entry.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	tags, err := env.journal.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	for _, tag := range tags {
		assert.Zero(t, tag.EntryCount, tag.Name)
	}

	assert.ErrorIs(t, env.journal.DeleteEntry(ctx, alice.ID, entry.ID), apperrors.ErrNotFound)
}

func TestListing(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	for i := 0; i < 3; i++ {
		_, err := env.journal.CreateEntry(ctx, alice.ID, sampleFields("alice entry"), strPtr("go"))
		require.NoError(t, err)
	}
	_, err := env.journal.CreateEntry(ctx, bob.ID, sampleFields("bob entry"), strPtr("sql"))
	require.NoError(t, err)

	page, err := env.journal.ListEntries(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalRecords)
	assert.Equal(t, 2, page.TotalPages())
	require.Len(t, page.Entries, 3)
	assert.Equal(t, "bob entry", page.Entries[0].Title)
	assert.Equal(t, []string{"sql"}, tagNames(page.Entries[0].Tags))

	mine, err := env.journal.ListUserEntries(ctx, alice.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Page)
	assert.Equal(t, 10, mine.Limit)
	assert.Len(t, mine.Entries, 3)

	tagged, err := env.journal.ListEntriesByTag(ctx, " sql ", 1, 10)
	require.NoError(t, err)
	require.Len(t, tagged.Entries, 1)
	assert.Equal(t, bob.ID, tagged.Entries[0].UserID)

	_, err = env.journal.ListEntriesByTag(ctx, "rust", 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetEntry_RendersSanitizedKnowledge(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	fields := sampleFields("Study Go")
	fields.Knowledge = "**bold** <script>alert(1)</script>"
	entry, err := env.journal.CreateEntry(ctx, alice.ID, fields, nil)
	require.NoError(t, err)

	detail, err := env.journal.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Contains(t, detail.KnowledgeHTML, "<strong>bold</strong>")
	assert.NotContains(t, detail.KnowledgeHTML, "<script>")
}

func TestFieldsFromForm(t *testing.T) {
	fields, err := FieldsFromForm(models.EntryForm{
		Title:     "Study Go",
		Date:      "2024-03-01",
		TimeSpent: "1.5",
		Knowledge: "notes",
		Resources: "https://go.dev\n\n  Effective Go  \n",
	})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, fields.TimeSpent)
	assert.Equal(t, []string{"https://go.dev", "Effective Go"}, fields.Resources)
	assert.Equal(t, "2024-03-01", fields.Date.Format(models.DateLayout))

	_, err = FieldsFromForm(models.EntryForm{Date: "2024-03-01", TimeSpent: "-5"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = FieldsFromForm(models.EntryForm{Date: "yesterday", TimeSpent: "5"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthService(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	alice, err := env.auth.Register(ctx, "  alice ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", alice.Username)
	assert.NotEqual(t, "correct horse", alice.PasswordHash)

	_, err = env.auth.Register(ctx, "alice", "another password")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	_, err = env.auth.Register(ctx, "al", "short")
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "username")
	assert.Contains(t, appErr.Details, "password")

	got, err := env.auth.Authenticate(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, wrongPassword := env.auth.Authenticate(ctx, "alice", "battery staple")
	_, unknownUser := env.auth.Authenticate(ctx, "mallory", "correct horse")
	assert.ErrorIs(t, wrongPassword, apperrors.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, apperrors.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	err = env.auth.ChangePassword(ctx, alice.ID, "wrong", "a new password")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	require.NoError(t, env.auth.ChangePassword(ctx, alice.ID, "correct horse", "a new password"))
	_, err = env.auth.Authenticate(ctx, "alice", "a new password")
	assert.NoError(t, err)
}

func TestTokenIssuer(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := issuer.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	other, err := NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.Error(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(token)
	assert.Error(t, err)

	_, err = issuer.Parse(strings.Repeat("x", 20))
	assert.Error(t, err)

	_, err = NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}
