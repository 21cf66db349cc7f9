package preview

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"linksvault/internal/domain"
)

// DefaultSessionSize bounds the preview map of a session.
const DefaultSessionSize = 1000

// Session is the state of one open collection view: the published previews,
// the dedup guard and the channel used to talk to the user.
type Session struct {
	ID string

	previews *lru.Cache[string, domain.PreviewRecord]
	guard    *Guard
	notifier Notifier

	mu        sync.RWMutex
	onPublish func(url string, rec domain.PreviewRecord)

	// debounced dispatch state, owned by Dispatcher
	dispatchMu sync.Mutex
	timer      *time.Timer
	armed      bool
	queued     []domain.LinkEntry
}

// NewSession creates a session holding at most size previews.
func NewSession(size int, notifier Notifier) (*Session, error) {
	if size <= 0 {
		size = DefaultSessionSize
	}
	guard := NewGuard()
	// An evicted preview is no longer served by the session, so its claim
	// goes too and the next request resolves it again.
	previews, err := lru.NewWithEvict(size, func(url string, _ domain.PreviewRecord) {
		guard.Release(url)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session preview map: %w", err)
	}
	return &Session{
		ID:       uuid.NewString(),
		previews: previews,
		guard:    guard,
		notifier: notifier,
	}, nil
}

// Guard returns the session's dedup guard.
func (s *Session) Guard() *Guard {
	return s.guard
}

// OnPublish registers a hook called after every publish.
func (s *Session) OnPublish(fn func(url string, rec domain.PreviewRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPublish = fn
}

// Preview returns the published record for a URL.
func (s *Session) Preview(url string) (domain.PreviewRecord, bool) {
	return s.previews.Peek(url)
}

// Publish makes a record the URL's current preview.
func (s *Session) Publish(url string, rec domain.PreviewRecord) {
	if rec.URL == "" {
		rec.URL = url
	}
	s.previews.Add(url, rec)

	s.mu.RLock()
	hook := s.onPublish
	s.mu.RUnlock()
	if hook != nil {
		hook(url, rec)
	}
}

// Forget removes the URL's preview and releases its claim in the guard.
func (s *Session) Forget(url string) {
	s.previews.Remove(url)
	s.guard.Release(url)
}

// Len returns the number of published previews.
func (s *Session) Len() int {
	return s.previews.Len()
}
