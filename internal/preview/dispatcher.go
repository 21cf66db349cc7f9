package preview

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"linksvault/internal/cache"
	"linksvault/internal/domain"
)

// DefaultDebounce is the window between hydration and dispatching fetches.
const DefaultDebounce = 200 * time.Millisecond

// Dispatcher loads a collection into a session: cached previews are hydrated
// first, and the links still missing a preview are resolved in parallel after
// a short debounce.
type Dispatcher struct {
	resolver *Resolver
	caches   *cache.Manager
	debounce time.Duration
	log      logrus.FieldLogger

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A non-positive debounce uses DefaultDebounce.
func NewDispatcher(resolver *Resolver, caches *cache.Manager, debounce time.Duration, logger logrus.FieldLogger) *Dispatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Dispatcher{
		resolver: resolver,
		caches:   caches,
		debounce: debounce,
		log:      logger.WithField("component", "dispatcher"),
	}
}

// Load hydrates the session from the cache tiers and schedules resolution of
// the remaining links. Hydrated records past the staleness threshold are served
// and refreshed in the background. Calls within the debounce window are
// coalesced and the latest link list wins. It returns the number of links
// served from cache.
func (d *Dispatcher) Load(ctx context.Context, s *Session, links []domain.LinkEntry) int {
	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.URL)
	}

	hydrated := d.caches.Hydrate(ctx, urls)
	served, stale := 0, 0
	for _, l := range links {
		rec, ok := hydrated[l.URL]
		if !ok {
			continue
		}
		_, published := s.Preview(l.URL)
		if !s.guard.Begin(l.URL) || published {
			continue
		}
		s.Publish(l.URL, rec.WithUserTitle(l))
		served++
		if d.caches.IsStale(rec) {
			d.resolver.refreshInBackground(ctx, s, l)
			stale++
		}
	}

	d.schedule(context.WithoutCancel(ctx), s, links)

	d.log.WithFields(logrus.Fields{
		"session_id": s.ID,
		"links":      len(links),
		"hydrated":   served,
		"stale":      stale,
	}).Debug("Collection loaded")
	return served
}

func (d *Dispatcher) schedule(ctx context.Context, s *Session, links []domain.LinkEntry) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.queued = links
	if s.armed && s.timer.Stop() {
		s.timer.Reset(d.debounce)
		return
	}
	s.armed = true
	d.wg.Add(1)
	s.timer = time.AfterFunc(d.debounce, func() {
		defer d.wg.Done()
		d.flush(ctx, s)
	})
}

// flush resolves every queued link the guard has not seen, all at once.
func (d *Dispatcher) flush(ctx context.Context, s *Session) {
	s.dispatchMu.Lock()
	links := s.queued
	s.queued = nil
	s.armed = false
	s.dispatchMu.Unlock()

	byURL := make(map[string]domain.LinkEntry, len(links))
	urls := make([]string, 0, len(links))
	for _, l := range links {
		if _, ok := byURL[l.URL]; !ok {
			byURL[l.URL] = l
			urls = append(urls, l.URL)
		}
	}

	pending := s.guard.Pending(urls)
	if len(pending) == 0 {
		return
	}
	d.log.WithFields(logrus.Fields{"session_id": s.ID, "count": len(pending)}).Debug("Dispatching preview fetches")

	for _, url := range pending {
		link := byURL[url]
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.resolver.Resolve(ctx, s, link)
		}()
	}
}

// Wait blocks until every scheduled dispatch and the resolutions it started have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
	d.resolver.Wait()
}
