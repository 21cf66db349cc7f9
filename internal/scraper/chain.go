package scraper

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// Chain tries fetchers in order and returns the first Success carrying a title.
// When every member errored the joined error is returned; otherwise the
// members' failure reasons are combined into one Failure.
type Chain struct {
	fetchers []Fetcher
	log      logrus.FieldLogger
}

// NewChain creates a chain. Nil fetchers are skipped.
func NewChain(logger logrus.FieldLogger, fetchers ...Fetcher) *Chain {
	c := &Chain{log: logger.WithField("component", "fetch_chain")}
	for _, f := range fetchers {
		if f != nil {
			c.fetchers = append(c.fetchers, f)
		}
	}
	return c
}

// Fetch runs the chain.
func (c *Chain) Fetch(ctx context.Context, target string, opts Options) (Outcome, error) {
	var (
		errs    []error
		reasons []string
	)
	for _, f := range c.fetchers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, err := f.Fetch(ctx, target, opts)
		switch {
		case errors.Is(err, ErrNoAdapter):
			continue
		case err != nil:
			c.log.WithError(err).WithField("url", target).Debug("Chain member failed")
			errs = append(errs, err)
			continue
		}
		switch o := outcome.(type) {
		case Success:
			if strings.TrimSpace(o.Title) != "" {
				return o, nil
			}
			reasons = append(reasons, "empty title")
		case Failure:
			reasons = append(reasons, o.Reason)
		}
	}

	if len(reasons) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(reasons) == 0 {
		return Failure{Reason: "no fetcher handled the url"}, nil
	}
	return Failure{Reason: strings.Join(reasons, "; ")}, nil
}
