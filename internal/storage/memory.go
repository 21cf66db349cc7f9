package storage

import (
	"context"
	"sync"
)

// MemoryBlobStore is a process-local BlobStore.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryBlobStore creates an empty store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{items: make(map[string]string)}
}

// GetItem returns the stored value and whether the key exists.
func (s *MemoryBlobStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *MemoryBlobStore) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

// RemoveItem deletes the key. Missing keys are not an error.
func (s *MemoryBlobStore) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// MemoryDocumentStore is a process-local DocumentStore, used when no Redis URL is configured.
type MemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryDocumentStore creates an empty store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: make(map[string][]byte)}
}

// Get returns a copy of the document, or ErrNotFound.
func (s *MemoryDocumentStore) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

// Set stores a copy of doc under id.
func (s *MemoryDocumentStore) Set(ctx context.Context, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = append([]byte(nil), doc...)
	return nil
}

// Delete removes the document. Missing ids are not an error.
func (s *MemoryDocumentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}
