package storage

import (
	"context"
	"errors"

	"linksvault/internal/domain"
)

// ErrNotFound is returned by DocumentStore.Get when no document exists for the id.
var ErrNotFound = errors.New("document not found")

// Repository defines the storage operations for link collections.
// A collection is identified by an opaque id (one per chat in the bot).
type Repository interface {
	// SaveLink stores a new link or replaces the one with the same comparison key.
	SaveLink(ctx context.Context, collectionID string, link domain.LinkEntry) error

	// GetLinks retrieves every link of a collection, newest first.
	GetLinks(ctx context.Context, collectionID string) ([]domain.LinkEntry, error)

	// GetLink retrieves one link by comparison key. Returns domain.ErrNotFound when absent.
	GetLink(ctx context.Context, collectionID, key string) (domain.LinkEntry, error)

	// DeleteLink removes one link by comparison key. Deleting a missing link is not an error.
	DeleteLink(ctx context.Context, collectionID, key string) error

	// Close gracefully shuts down the repository connection.
	Close() error
}

// BlobStore is the per-device key-value store holding whole string values.
// GetItem reports found=false for a missing key.
type BlobStore interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// DocumentStore is the durable store holding one document per id.
// Get returns ErrNotFound when the document does not exist.
type DocumentStore interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, doc []byte) error
	Delete(ctx context.Context, id string) error
}
