package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"linksvault/internal/domain"
)

// DefaultStaleAfter is the age after which a remote record is refreshed in the background.
const DefaultStaleAfter = 7 * 24 * time.Hour

const hydrateParallelism = 8

// Result is the answer of Manager.Lookup.
type Result struct {
	Record domain.PreviewRecord
	Status Status
	// Stale is set on found records older than the staleness threshold.
	Stale bool
}

// Manager coordinates the two tiers. The tiers are keyed by URL and may diverge
// transiently: the remote tier is written first, so it can run ahead of the local one.
type Manager struct {
	local      *LocalCache
	remote     *RemoteCache
	staleAfter time.Duration
	now        func() time.Time
	log        logrus.FieldLogger
}

// NewManager creates the cache manager. A non-positive staleAfter uses DefaultStaleAfter.
func NewManager(local *LocalCache, remote *RemoteCache, staleAfter time.Duration, logger logrus.FieldLogger) *Manager {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Manager{
		local:      local,
		remote:     remote,
		staleAfter: staleAfter,
		now:        time.Now,
		log:        logger.WithField("component", "cache_manager"),
	}
}

// Lookup checks the remote tier for a URL. Read errors are logged and reported as missing.
func (m *Manager) Lookup(ctx context.Context, url string) Result {
	rec, status, err := m.remote.Lookup(ctx, url)
	if err != nil {
		m.log.WithError(err).WithField("url", url).Warn("Remote cache read failed")
		return Result{Status: StatusMissing}
	}
	res := Result{Record: rec, Status: status}
	if status == StatusFound {
		res.Stale = m.IsStale(rec)
	}
	return res
}

// IsStale reports whether a record is older than the staleness threshold.
func (m *Manager) IsStale(rec domain.PreviewRecord) bool {
	return rec.Age(m.now()) > m.staleAfter
}

// Persist writes the record to the remote tier, then merges it into the local tier.
// Failures in either tier are logged and do not stop the other.
func (m *Manager) Persist(ctx context.Context, url string, rec domain.PreviewRecord) {
	log := m.log.WithField("url", url)
	if err := m.remote.Store(ctx, url, rec); err != nil {
		log.WithError(err).Warn("Failed to write remote cache")
	}
	if err := m.local.Save(ctx, map[string]domain.PreviewRecord{url: rec}); err != nil {
		log.WithError(err).Warn("Failed to write local cache")
	}
}

// Delete removes the URL from both tiers.
func (m *Manager) Delete(ctx context.Context, url string) {
	log := m.log.WithField("url", url)
	if err := m.remote.Delete(ctx, url); err != nil {
		log.WithError(err).Warn("Failed to delete remote cache entry")
	}
	if err := m.local.Remove(ctx, url); err != nil {
		log.WithError(err).Warn("Failed to delete local cache entry")
	}
}

// Hydrate returns every usable cached record for the URLs, stale ones included;
// callers check IsStale. The local tier is read first; only URLs it misses are read from the remote tier, in parallel, and the
// records found there are merged back into the local tier.
func (m *Manager) Hydrate(ctx context.Context, urls []string) map[string]domain.PreviewRecord {
	out := make(map[string]domain.PreviewRecord, len(urls))

	local, err := m.local.Load(ctx)
	if err != nil {
		m.log.WithError(err).Warn("Failed to load local cache")
		local = nil
	}

	var misses []string
	seen := make(map[string]bool, len(urls))
	for _, url := range urls {
		if seen[url] {
			continue
		}
		seen[url] = true
		if rec, ok := local[url]; ok && !rec.IsBroken() {
			out[url] = rec
			continue
		}
		misses = append(misses, url)
	}
	if len(misses) == 0 {
		return out
	}

	var (
		mu    sync.Mutex
		found = make(map[string]domain.PreviewRecord)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateParallelism)
	for _, url := range misses {
		url := url
		g.Go(func() error {
			res := m.Lookup(gctx, url)
			if res.Status != StatusFound {
				return nil
			}
			mu.Lock()
			found[url] = res.Record
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // lookups never fail the group

	for url, rec := range found {
		out[url] = rec
	}
	if err := m.local.Save(ctx, found); err != nil {
		m.log.WithError(err).Warn("Failed to merge hydrated records into local cache")
	}

	m.log.WithFields(logrus.Fields{
		"requested":   len(seen),
		"local_hits":  len(seen) - len(misses),
		"remote_hits": len(found),
	}).Debug("Cache hydration finished")
	return out
}
