package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"linksvault/internal/domain"
	"linksvault/internal/storage"
)

// Status distinguishes the three answers a remote read can give.
type Status int

const (
	// StatusMissing means no document exists for the URL.
	StatusMissing Status = iota
	// StatusBroken means a document exists but cannot be trusted.
	StatusBroken
	// StatusFound means a usable record was read.
	StatusFound
)

func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusBroken:
		return "broken"
	case StatusFound:
		return "found"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// RemoteCache is the shared tier: one document per URL, id from domain.DocumentID.
type RemoteCache struct {
	store storage.DocumentStore
	log   logrus.FieldLogger
}

// NewRemoteCache creates the shared tier over a document store.
func NewRemoteCache(store storage.DocumentStore, logger logrus.FieldLogger) *RemoteCache {
	return &RemoteCache{
		store: store,
		log:   logger.WithField("component", "remote_cache"),
	}
}

// Lookup reads the record for a URL. Undecodable documents count as broken.
func (c *RemoteCache) Lookup(ctx context.Context, url string) (domain.PreviewRecord, Status, error) {
	doc, err := c.store.Get(ctx, domain.DocumentID(url))
	if errors.Is(err, storage.ErrNotFound) {
		return domain.PreviewRecord{}, StatusMissing, nil
	}
	if err != nil {
		return domain.PreviewRecord{}, StatusMissing, err
	}

	var rec domain.PreviewRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		c.log.WithError(err).WithField("url", url).Debug("Remote document does not decode")
		return domain.PreviewRecord{}, StatusBroken, nil
	}
	if rec.IsBroken() {
		return rec, StatusBroken, nil
	}
	if rec.URL == "" {
		rec.URL = url
	}
	return rec, StatusFound, nil
}

// Store writes the record for a URL.
func (c *RemoteCache) Store(ctx context.Context, url string, rec domain.PreviewRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return c.store.Set(ctx, domain.DocumentID(url), doc)
}

// Delete removes the record for a URL.
func (c *RemoteCache) Delete(ctx context.Context, url string) error {
	return c.store.Delete(ctx, domain.DocumentID(url))
}
