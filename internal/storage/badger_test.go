package storage

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linksvault/internal/domain"
)

// setupTestDB creates a temporary BadgerDB instance for testing.
// It returns the repository instance and a cleanup function.
func setupTestDB(t *testing.T) (*BadgerRepository, func()) {
	t.Helper()

	tempDir := t.TempDir()

	testLogger := logrus.New()
	testLogger.SetOutput(os.Stderr)
	testLogger.SetLevel(logrus.ErrorLevel)

	repo, err := NewBadgerRepository(tempDir, testLogger)
	require.NoError(t, err, "Failed to create test BadgerDB repository")

	cleanup := func() {
		err := repo.Close()
		assert.NoError(t, err, "Failed to close test BadgerDB repository")
	}

	return repo, cleanup
}

func newLink(rawURL, title string, ts time.Time) domain.LinkEntry {
	return domain.LinkEntry{
		URL:       rawURL,
		Title:     title,
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
	}
}

// TestBadgerRepository_SaveAndGetLinks tests saving and retrieving links.
func TestBadgerRepository_SaveAndGetLinks(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	link1 := newLink("https://example.com/page1", "Example Page 1", base)
	link2 := newLink("https://example.com/page2", "Example Page 2", base.Add(time.Hour))
	link3 := newLink("https://another.com/", "Another Page", base)

	require.NoError(t, repo.SaveLink(ctx, "chat1", link1))
	require.NoError(t, repo.SaveLink(ctx, "chat1", link2))
	require.NoError(t, repo.SaveLink(ctx, "chat2", link3))

	links1, err := repo.GetLinks(ctx, "chat1")
	require.NoError(t, err)
	require.Len(t, links1, 2)
	assert.Equal(t, link2.URL, links1[0].URL, "newest link comes first")
	assert.Equal(t, link1.URL, links1[1].URL)

	links2, err := repo.GetLinks(ctx, "chat2")
	require.NoError(t, err)
	require.Len(t, links2, 1)
	assert.Equal(t, link3.URL, links2[0].URL)

	links3, err := repo.GetLinks(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, links3)
}

func TestBadgerRepository_SaveReplacesSameComparisonKey(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.SaveLink(ctx, "c", newLink("https://example.com/a", "First", now)))
	updated := newLink("https://example.com/a", "First", now)
	updated.IsFavorite = true
	require.NoError(t, repo.SaveLink(ctx, "c", updated))

	links, err := repo.GetLinks(ctx, "c")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].IsFavorite)
}

func TestBadgerRepository_GetLink(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	link := newLink("https://example.com/a", "A", time.Now())
	require.NoError(t, repo.SaveLink(ctx, "c", link))

	got, err := repo.GetLink(ctx, "c", link.Key())
	require.NoError(t, err)
	assert.Equal(t, link.URL, got.URL)

	_, err = repo.GetLink(ctx, "c", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestBadgerRepository_DeleteLink tests deleting links.
func TestBadgerRepository_DeleteLink(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	link := newLink("https://example.com/a", "A", time.Now())
	require.NoError(t, repo.SaveLink(ctx, "c", link))

	require.NoError(t, repo.DeleteLink(ctx, "c", link.Key()))
	links, err := repo.GetLinks(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, links)

	assert.NoError(t, repo.DeleteLink(ctx, "c", "never-existed"))
}

func TestBadgerRepository_LegacyEntries(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	legacy := domain.LinkEntry{URL: "https://Example.com/Old"}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set(generateLinkKey("c", legacy.Key()), raw)
	}))
	require.NoError(t, repo.SaveLink(ctx, "c", newLink("https://example.com/new", "New", time.Now())))

	links, err := repo.GetLinks(ctx, "c")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "https://example.com/new", links[0].URL, "legacy entries sort last")
	assert.Equal(t, "legacy_https://example.com/old", links[1].Timestamp)
	assert.Equal(t, "https://Example.com/Old", links[1].Title, "title defaults to the url")
}

func TestBadgerRepository_Items(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, found, err := repo.GetItem(ctx, "previews")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SetItem(ctx, "previews", `{"a":1}`))
	value, found, err := repo.GetItem(ctx, "previews")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"a":1}`, value)

	require.NoError(t, repo.RemoveItem(ctx, "previews"))
	_, found, err = repo.GetItem(ctx, "previews")
	require.NoError(t, err)
	assert.False(t, found)
}
