package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"linksvault/internal/domain"
)

// ModularFetcher is the primary tier: it picks a platform adapter for the URL and
// falls back to the generic page fetcher when the adapter has nothing.
type ModularFetcher struct {
	adapters []Fetcher
	generic  Fetcher
	log      logrus.FieldLogger
}

// NewModularFetcher builds the primary fetcher. Adapters are tried in order and
// answer ErrNoAdapter for URLs they do not handle.
func NewModularFetcher(generic Fetcher, logger logrus.FieldLogger, adapters ...Fetcher) *ModularFetcher {
	return &ModularFetcher{
		adapters: adapters,
		generic:  generic,
		log:      logger.WithField("component", "modular_fetcher"),
	}
}

// Fetch runs the first adapter that claims the URL, then the generic fetcher.
func (f *ModularFetcher) Fetch(ctx context.Context, target string, opts Options) (Outcome, error) {
	log := f.log.WithField("url", target)

	for _, adapter := range f.adapters {
		outcome, err := adapter.Fetch(ctx, target, opts)
		if errors.Is(err, ErrNoAdapter) {
			continue
		}
		if err != nil {
			log.WithError(err).Debug("Platform adapter failed, using generic fetcher")
			break
		}
		if success, ok := outcome.(Success); ok && success.Title != "" {
			return stampModular(success), nil
		}
		log.Debug("Platform adapter returned no title, using generic fetcher")
		break
	}

	outcome, err := f.generic.Fetch(ctx, target, opts)
	if err != nil {
		return nil, err
	}
	if success, ok := outcome.(Success); ok {
		return stampModular(success), nil
	}
	return outcome, nil
}

func stampModular(s Success) Success {
	s.Source = domain.SourceModular
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return s
}
