// Package preview turns saved links into resolved previews: it consults the
// cache tiers, runs the fetch fallback chain and publishes the result to the
// session that asked for it.
package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"linksvault/internal/cache"
	"linksvault/internal/classify"
	"linksvault/internal/domain"
	"linksvault/internal/scraper"
	"linksvault/internal/textnorm"
)

const (
	DefaultRefetchTimeout = 15 * time.Second
	DefaultRetryDelay     = 2 * time.Second
)

// Config tunes the resolver.
type Config struct {
	// Fetch is passed to every fetcher on the normal path.
	Fetch scraper.Options

	// RefetchTimeout bounds a manual refetch.
	RefetchTimeout time.Duration

	// RetryDelay is waited before a manual retry resolves again.
	RetryDelay time.Duration
}

// Resolver runs the preview resolution for links.
type Resolver struct {
	primary   scraper.Fetcher
	secondary scraper.Fetcher
	caches    *cache.Manager
	cfg       Config

	flight singleflight.Group
	bg     sync.WaitGroup
	now    func() time.Time
	log    logrus.FieldLogger
}

// NewResolver wires the primary and secondary fetch tiers to the cache manager.
func NewResolver(primary, secondary scraper.Fetcher, caches *cache.Manager, cfg Config, logger logrus.FieldLogger) *Resolver {
	if cfg.RefetchTimeout <= 0 {
		cfg.RefetchTimeout = DefaultRefetchTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Resolver{
		primary:   primary,
		secondary: secondary,
		caches:    caches,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.WithField("component", "resolver"),
	}
}

// tier identifies which step of the fallback chain produced a result.
type tier int

const (
	tierPrimary tier = iota
	tierSecondary
	tierFallback
)

type chainResult struct {
	tier    tier
	success scraper.Success
}

// Resolve returns the link's preview, publishing every intermediate record to the
// session. It returns the zero record when the URL is skipped: already claimed by
// another resolution without a published record yet, or failed this session.
func (r *Resolver) Resolve(ctx context.Context, s *Session, link domain.LinkEntry) domain.PreviewRecord {
	url := link.URL
	log := r.log.WithFields(logrus.Fields{"url": url, "session_id": s.ID})

	if rec, ok := s.Preview(url); ok {
		return rec
	}
	if s.guard.IsFailed(url) {
		log.Debug("URL failed earlier this session, skipping")
		return domain.PreviewRecord{}
	}
	if !s.guard.Begin(url) {
		rec, _ := s.Preview(url)
		return rec
	}

	res := r.caches.Lookup(ctx, url)
	switch res.Status {
	case cache.StatusFound:
		rec := res.Record.WithUserTitle(link)
		s.Publish(url, rec)
		if !res.Stale {
			log.Debug("Served preview from cache")
			return rec
		}
		log.Debug("Cached preview is stale, refreshing in background")
		r.refreshInBackground(ctx, s, link)
		return rec
	case cache.StatusBroken:
		log.Debug("Cached preview is broken, refetching")
	}

	s.Publish(url, domain.NewPlaceholder(url, r.now()))
	return r.fetchAndPublish(ctx, s, link, false)
}

// refreshInBackground starts a tracked refresh that outlives ctx.
func (r *Resolver) refreshInBackground(ctx context.Context, s *Session, link domain.LinkEntry) {
	r.bg.Add(1)
	go func() {
		defer r.bg.Done()
		r.refresh(context.WithoutCancel(ctx), s, link)
	}()
}

// refresh re-resolves a stale record without replacing it with a placeholder.
// Only fetched records overwrite the stale one; a fallback or error keeps it.
func (r *Resolver) refresh(ctx context.Context, s *Session, link domain.LinkEntry) {
	log := r.log.WithField("url", link.URL)

	result, err := r.runChainOnce(ctx, link.URL, "")
	if err != nil {
		log.WithError(err).Warn("Background refresh failed, keeping stale preview")
		return
	}
	if result.tier == tierFallback {
		log.Debug("Background refresh found nothing better, keeping stale preview")
		return
	}
	rec := r.buildRecord(link, result, false)
	r.caches.Persist(ctx, link.URL, rec)
	s.Publish(link.URL, rec)
	log.WithField("source", rec.Source).Debug("Stale preview refreshed")
}

// fetchAndPublish runs the chain and settles the URL: a record is persisted and
// published, or an error record is published and the URL marked failed.
func (r *Resolver) fetchAndPublish(ctx context.Context, s *Session, link domain.LinkEntry, refetch bool) domain.PreviewRecord {
	url := link.URL
	log := r.log.WithFields(logrus.Fields{"url": url, "session_id": s.ID})

	key := ""
	if refetch {
		key = "refetch"
	}
	result, err := r.runChainOnce(ctx, url, key)
	if err != nil {
		return r.fail(ctx, s, link, refetch, err)
	}

	rec := r.buildRecord(link, result, refetch)
	r.caches.Persist(ctx, url, rec)
	s.Publish(url, rec)
	log.WithFields(logrus.Fields{"source": rec.Source, "title": rec.Title}).Info("Preview resolved")
	return rec
}

func (r *Resolver) fail(ctx context.Context, s *Session, link domain.LinkEntry, ignoreCustom bool, err error) domain.PreviewRecord {
	url := link.URL
	site := classify.IdentifySite(url)

	title := domain.UnavailableTitle
	if custom, ok := link.UserTitle(); ok && !ignoreCustom {
		title = custom
	}
	rec := domain.PreviewRecord{
		URL:           url,
		Title:         title,
		Description:   "Could not load preview: " + err.Error(),
		SiteName:      site,
		Timestamp:     r.now(),
		Source:        domain.SourceError,
		IsCustomTitle: title != domain.UnavailableTitle,
		Error:         err.Error(),
	}

	s.Publish(url, rec)
	s.guard.MarkFailed(url)
	r.log.WithError(err).WithFields(logrus.Fields{"url": url, "session_id": s.ID}).Warn("Preview resolution failed")
	if s.notifier != nil {
		s.notifier.Notify(ctx, fmt.Sprintf("Couldn't load the %s preview. Use /retry to try again.", site))
	}
	return rec
}

// runChainOnce collapses concurrent chain runs for the same URL across sessions.
func (r *Resolver) runChainOnce(ctx context.Context, url, mode string) (chainResult, error) {
	v, err, shared := r.flight.Do(mode+"|"+url, func() (interface{}, error) {
		return r.runChain(ctx, url)
	})
	if shared {
		r.log.WithField("url", url).Debug("Joined in-flight fetch")
	}
	if err != nil {
		return chainResult{}, err
	}
	return v.(chainResult), nil
}

// runChain is the strict primary, secondary, fallback order. A tier is only
// consulted when the one before it errored, failed, or succeeded without a title.
// An error from the secondary tier ends the chain with that error.
func (r *Resolver) runChain(ctx context.Context, url string) (result chainResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("fetcher panicked: %v", p)
		}
	}()
	log := r.log.WithField("url", url)

	outcome, err := r.primary.Fetch(ctx, url, r.cfg.Fetch)
	switch o := outcome.(type) {
	case scraper.Success:
		if err == nil && strings.TrimSpace(o.Title) != "" {
			return chainResult{tier: tierPrimary, success: o}, nil
		}
		log.Debug("Primary fetcher returned no title")
	case scraper.Failure:
		log.WithField("reason", o.Reason).Debug("Primary fetcher failed")
	default:
		log.WithError(err).Debug("Primary fetcher errored")
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return chainResult{}, ctxErr
	}

	outcome, err = r.secondary.Fetch(ctx, url, r.cfg.Fetch)
	if err != nil {
		return chainResult{}, fmt.Errorf("all fetchers failed: %w", err)
	}
	switch o := outcome.(type) {
	case scraper.Success:
		if strings.TrimSpace(o.Title) != "" {
			return chainResult{tier: tierSecondary, success: o}, nil
		}
		log.Debug("Secondary fetcher returned no title")
	case scraper.Failure:
		log.WithField("reason", o.Reason).Debug("Secondary fetcher failed")
	default:
		return chainResult{}, errors.New("secondary fetcher returned no outcome")
	}
	return chainResult{tier: tierFallback}, nil
}

// buildRecord normalizes a chain result into the record that gets stored.
func (r *Resolver) buildRecord(link domain.LinkEntry, result chainResult, refetch bool) domain.PreviewRecord {
	url := link.URL
	custom, hasCustom := link.UserTitle()
	if refetch {
		hasCustom = false
	}

	if result.tier == tierFallback {
		site := classify.NormalizeSiteName("", url)
		label := site + " Link"
		rec := domain.PreviewRecord{
			URL:         url,
			Title:       textnorm.ResolvePreviewTitle(label, label),
			Description: domain.FallbackDesc,
			SiteName:    site,
			Timestamp:   r.now(),
			Source:      domain.SourceFallback,
		}
		if hasCustom {
			rec.Title = custom
			rec.IsCustomTitle = true
		}
		return rec
	}

	s := result.success
	rec := domain.PreviewRecord{
		URL:         url,
		Description: textnorm.ResolvePreviewDescription(s.Description),
		Image:       domain.StringPtr(strings.TrimSpace(s.Image)),
		SiteName:    classify.NormalizeSiteName(s.SiteName, url),
		Timestamp:   s.Timestamp,
		Source:      s.Source,
	}
	if hasCustom {
		rec.Title = custom
		rec.IsCustomTitle = true
	} else {
		rec.Title = textnorm.ResolvePreviewTitle(s.Title, domain.UntitledTitle)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now()
	}
	switch {
	case refetch:
		rec.Source = domain.SourceRefetch
	case rec.Source == "" && result.tier == tierSecondary:
		rec.Source = domain.SourceMicrolink
	case rec.Source == "":
		rec.Source = domain.SourceUnknown
	}
	return rec
}

// Refetch drops every cached copy of the link's preview and fetches it again
// under the refetch timeout. The custom title is ignored.
func (r *Resolver) Refetch(ctx context.Context, s *Session, link domain.LinkEntry) domain.PreviewRecord {
	url := link.URL
	r.caches.Delete(ctx, url)
	s.Forget(url)
	s.guard.ClearFailed(url)
	s.guard.Begin(url)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.RefetchTimeout)
	defer cancel()

	s.Publish(url, domain.NewPlaceholder(url, r.now()))
	rec := r.fetchAndPublish(ctx, s, link, true)
	if rec.Error == "" && s.notifier != nil {
		s.notifier.Notify(ctx, fmt.Sprintf("Preview refreshed: %s", rec.Title))
	}
	return rec
}

// Retry clears the failure mark, waits the retry delay and resolves again.
// It returns the zero record if ctx ends during the wait.
func (r *Resolver) Retry(ctx context.Context, s *Session, link domain.LinkEntry) domain.PreviewRecord {
	s.guard.ClearFailed(link.URL)
	s.Forget(link.URL)

	timer := time.NewTimer(r.cfg.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return domain.PreviewRecord{}
	case <-timer.C:
	}
	return r.Resolve(ctx, s, link)
}

// SaveCustomPreview stores a user-edited preview in both tiers and publishes it.
// Image and site name are kept from the current preview when there is one.
func (r *Resolver) SaveCustomPreview(ctx context.Context, s *Session, link domain.LinkEntry, title, description string) domain.PreviewRecord {
	url := link.URL
	current, ok := s.Preview(url)
	if ok && (current.IsPlaceholder() || current.Error != "") {
		current, ok = domain.PreviewRecord{}, false
	}
	if !ok {
		if res := r.caches.Lookup(ctx, url); res.Status == cache.StatusFound {
			current = res.Record
		}
	}

	site := current.SiteName
	if site == "" || site == domain.UnknownSite {
		site = classify.IdentifySite(url)
	}
	if strings.TrimSpace(description) == "" {
		description = current.Description
	}
	rec := domain.PreviewRecord{
		URL:           url,
		Title:         strings.TrimSpace(title),
		Description:   strings.TrimSpace(description),
		Image:         current.Image,
		SiteName:      site,
		Timestamp:     r.now(),
		Source:        domain.SourceCustom,
		IsCustomTitle: true,
	}

	r.caches.Persist(ctx, url, rec)
	s.guard.ClearFailed(url)
	s.guard.Begin(url)
	s.Publish(url, rec)
	return rec
}

// Wait blocks until background refreshes have finished.
func (r *Resolver) Wait() {
	r.bg.Wait()
}
