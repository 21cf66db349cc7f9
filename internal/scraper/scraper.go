// Package scraper holds the preview fetch strategies. Every strategy implements
// Fetcher so the resolver can run them as one uniform fallback chain.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoAdapter is returned when a platform adapter does not handle the URL.
var ErrNoAdapter = errors.New("no adapter for url")

const (
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	maxBodyBytes     = 2 << 20
	defaultTimeout   = 10 * time.Second
)

// Options carries per-call settings shared by every fetcher.
type Options struct {
	// InstagramToken enables the Graph oEmbed endpoint. Empty means anonymous fetch.
	InstagramToken string

	// Timeout bounds a single fetch. Zero keeps the fetcher's default.
	Timeout time.Duration
}

// Outcome is the result of a fetch that did not error: either Success or Failure.
type Outcome interface {
	isOutcome()
}

// Success carries the metadata a fetcher found.
type Success struct {
	Title       string
	Description string
	Image       string
	SiteName    string
	Source      string
	Timestamp   time.Time
}

// Failure is an explicit, clean failure signal.
type Failure struct {
	Reason string
}

func (Success) isOutcome() {}
func (Failure) isOutcome() {}

// Fetcher defines the interface for fetching preview metadata for a URL.
// A returned error means the fetch broke (network, timeout, bad payload); a
// Failure outcome means the source answered but had nothing usable.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) (Outcome, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, url string, opts Options) (Outcome, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string, opts Options) (Outcome, error) {
	return f(ctx, url, opts)
}

// NewHTTPClient returns the client shared by the HTTP based fetchers.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func withTimeout(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// get performs a GET with the browser user agent. Non-2xx statuses are returned
// as a response with a drained body so callers can turn them into a Failure.
func get(ctx context.Context, client *http.Client, target, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return resp, nil
}

func statusFailure(resp *http.Response) Failure {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
	return Failure{Reason: fmt.Sprintf("HTTP %d (body: %s)", resp.StatusCode, string(body))}
}
