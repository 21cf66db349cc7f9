package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linksvault/internal/domain"
	"linksvault/internal/storage"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// countingDocs counts reads and can be switched to fail.
type countingDocs struct {
	*storage.MemoryDocumentStore
	gets atomic.Int32
	fail atomic.Bool
}

func (d *countingDocs) Get(ctx context.Context, id string) ([]byte, error) {
	d.gets.Add(1)
	if d.fail.Load() {
		return nil, errors.New("redis down")
	}
	return d.MemoryDocumentStore.Get(ctx, id)
}

func (d *countingDocs) Set(ctx context.Context, id string, doc []byte) error {
	if d.fail.Load() {
		return errors.New("redis down")
	}
	return d.MemoryDocumentStore.Set(ctx, id, doc)
}

type fixture struct {
	blobs   *storage.MemoryBlobStore
	docs    *countingDocs
	local   *LocalCache
	remote  *RemoteCache
	manager *Manager
	now     time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		blobs: storage.NewMemoryBlobStore(),
		docs:  &countingDocs{MemoryDocumentStore: storage.NewMemoryDocumentStore()},
		now:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	f.local = NewLocalCache(f.blobs, testLogger())
	f.remote = NewRemoteCache(f.docs, testLogger())
	f.manager = NewManager(f.local, f.remote, 0, testLogger())
	f.manager.now = func() time.Time { return f.now }
	return f
}

func record(title string, ts time.Time) domain.PreviewRecord {
	return domain.PreviewRecord{Title: title, Description: "d", SiteName: "example.com", Timestamp: ts, Source: "modular"}
}

func TestLocalCache_MergeWrite(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.local.Save(ctx, map[string]domain.PreviewRecord{"https://a.test": record("A", f.now)}))
	require.NoError(t, f.local.Save(ctx, map[string]domain.PreviewRecord{"https://b.test": record("B", f.now)}))

	all, err := f.local.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "unrelated keys survive a save")
	assert.Equal(t, "A", all["https://a.test"].Title)

	require.NoError(t, f.local.Remove(ctx, "https://a.test", "https://missing.test"))
	all, err = f.local.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Contains(t, all, "https://b.test")
}

func TestLocalCache_CorruptedBlobIsCleared(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.blobs.SetItem(ctx, LocalKey, "{not json"))

	all, err := f.local.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, found, _ := f.blobs.GetItem(ctx, LocalKey)
	assert.False(t, found, "corrupted blob is removed")

	require.NoError(t, f.blobs.SetItem(ctx, LocalKey, "[1,2]"))
	require.NoError(t, f.local.Save(ctx, map[string]domain.PreviewRecord{"https://a.test": record("A", f.now)}))
	all, err = f.local.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "save over a corrupted blob starts fresh")
}

func TestRemoteCache_Lookup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	url := "https://example.com/post"

	_, status, err := f.remote.Lookup(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, status)

	require.NoError(t, f.remote.Store(ctx, url, record(domain.LoadingTitle, f.now)))
	_, status, err = f.remote.Lookup(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, StatusBroken, status)

	require.NoError(t, f.docs.Set(ctx, domain.DocumentID(url), []byte("garbage")))
	_, status, err = f.remote.Lookup(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, StatusBroken, status)

	require.NoError(t, f.remote.Store(ctx, url, record("My Great Post", f.now)))
	rec, status, err := f.remote.Lookup(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, StatusFound, status)
	assert.Equal(t, "My Great Post", rec.Title)
	assert.Equal(t, url, rec.URL)

	raw, err := f.docs.Get(ctx, domain.DocumentID(url))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "siteName")

	require.NoError(t, f.remote.Delete(ctx, url))
	_, status, err = f.remote.Lookup(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, status)
}

func TestManager_LookupStaleness(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.remote.Store(ctx, "https://fresh.test", record("Fresh", f.now.Add(-6*24*time.Hour))))
	require.NoError(t, f.remote.Store(ctx, "https://old.test", record("Old", f.now.Add(-8*24*time.Hour))))

	fresh := f.manager.Lookup(ctx, "https://fresh.test")
	assert.Equal(t, StatusFound, fresh.Status)
	assert.False(t, fresh.Stale)

	old := f.manager.Lookup(ctx, "https://old.test")
	assert.Equal(t, StatusFound, old.Status)
	assert.True(t, old.Stale)
	assert.True(t, f.manager.IsStale(old.Record))
	assert.False(t, f.manager.IsStale(fresh.Record))

	f.docs.fail.Store(true)
	failed := f.manager.Lookup(ctx, "https://fresh.test")
	assert.Equal(t, StatusMissing, failed.Status, "read errors count as missing")
}

func TestManager_PersistWritesBothTiers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	url := "https://www.tiktok.com/@demo/video/123"

	f.manager.Persist(ctx, url, record("Check this out", f.now))

	_, err := f.docs.MemoryDocumentStore.Get(ctx, domain.DocumentID(url))
	require.NoError(t, err)
	local, err := f.local.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Check this out", local[url].Title)

	f.manager.Delete(ctx, url)
	_, err = f.docs.MemoryDocumentStore.Get(ctx, domain.DocumentID(url))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	local, err = f.local.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, local, url)
}

func TestManager_PersistSurvivesRemoteFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.docs.fail.Store(true)

	f.manager.Persist(ctx, "https://a.test", record("A", f.now))

	local, err := f.local.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", local["https://a.test"].Title)
}

func TestManager_Hydrate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.local.Save(ctx, map[string]domain.PreviewRecord{
		"https://local.test":  record("Local", f.now),
		"https://broken.test": record(domain.UnavailableTitle, f.now),
	}))
	require.NoError(t, f.remote.Store(ctx, "https://remote.test", record("Remote", f.now)))
	require.NoError(t, f.remote.Store(ctx, "https://broken.test", record("Repaired", f.now)))
	require.NoError(t, f.remote.Store(ctx, "https://bad-remote.test", record("", f.now)))

	got := f.manager.Hydrate(ctx, []string{
		"https://local.test",
		"https://remote.test",
		"https://broken.test",
		"https://bad-remote.test",
		"https://none.test",
		"https://remote.test",
	})

	assert.Equal(t, "Local", got["https://local.test"].Title)
	assert.Equal(t, "Remote", got["https://remote.test"].Title)
	assert.Equal(t, "Repaired", got["https://broken.test"].Title)
	assert.NotContains(t, got, "https://bad-remote.test")
	assert.NotContains(t, got, "https://none.test")
	assert.Equal(t, int32(4), f.docs.gets.Load(), "local hits issue no remote reads")

	local, err := f.local.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Remote", local["https://remote.test"].Title, "remote hits are merged into the local tier")
	assert.Equal(t, "Repaired", local["https://broken.test"].Title)

	f.docs.gets.Store(0)
	again := f.manager.Hydrate(ctx, []string{"https://local.test", "https://remote.test"})
	assert.Len(t, again, 2)
	assert.Zero(t, f.docs.gets.Load())
}
