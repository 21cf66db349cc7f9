// Package cache keeps resolved previews in two tiers: a per-device blob holding
// every record, and a shared store holding one document per URL.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"linksvault/internal/domain"
	"linksvault/internal/storage"
)

// LocalKey is the single blob key holding the whole local preview map.
const LocalKey = "linkPreviews"

// LocalCache is the device tier: one JSON object mapping URL to record,
// read and written wholesale.
type LocalCache struct {
	store storage.BlobStore
	key   string
	log   logrus.FieldLogger

	// mu serializes read-merge-write cycles on the blob.
	mu sync.Mutex
}

// NewLocalCache creates the device tier over a blob store.
func NewLocalCache(store storage.BlobStore, logger logrus.FieldLogger) *LocalCache {
	return &LocalCache{
		store: store,
		key:   LocalKey,
		log:   logger.WithField("component", "local_cache"),
	}
}

// Load returns every cached record. A blob that does not parse is removed and
// reported as empty.
func (c *LocalCache) Load(ctx context.Context) (map[string]domain.PreviewRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *LocalCache) load(ctx context.Context) (map[string]domain.PreviewRecord, error) {
	raw, found, err := c.store.GetItem(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read local cache: %w", err)
	}
	records := make(map[string]domain.PreviewRecord)
	if !found || raw == "" {
		return records, nil
	}
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		c.log.WithError(err).Warn("Local cache is corrupted, clearing it")
		if rmErr := c.store.RemoveItem(ctx, c.key); rmErr != nil {
			c.log.WithError(rmErr).Warn("Failed to clear corrupted local cache")
		}
		return make(map[string]domain.PreviewRecord), nil
	}
	return records, nil
}

// Save merges entries into the blob. Keys not in entries are left untouched.
func (c *LocalCache) Save(ctx context.Context, entries map[string]domain.PreviewRecord) error {
	if len(entries) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	for url, rec := range entries {
		records[url] = rec
	}
	return c.write(ctx, records)
}

// Remove drops the given URLs from the blob.
func (c *LocalCache) Remove(ctx context.Context, urls ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	changed := false
	for _, url := range urls {
		if _, ok := records[url]; ok {
			delete(records, url)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return c.write(ctx, records)
}

func (c *LocalCache) write(ctx context.Context, records map[string]domain.PreviewRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode local cache: %w", err)
	}
	if err := c.store.SetItem(ctx, c.key, string(data)); err != nil {
		return fmt.Errorf("failed to write local cache: %w", err)
	}
	return nil
}
