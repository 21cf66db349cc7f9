package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"linksvault/internal/domain"
	"linksvault/internal/textnorm"
)

// ErrBrowserNotFound is returned when no Chromium executable can be located.
var ErrBrowserNotFound = errors.New("rod browser dependency not found")

const rodPageTimeout = 30 * time.Second

// RodFetcher renders the page in a headless browser and reads its metadata.
// It serves pages that only expose their meta tags after scripts run.
type RodFetcher struct {
	log logrus.FieldLogger
}

// NewRodFetcher creates the browser backed fetcher.
func NewRodFetcher(logger logrus.FieldLogger) *RodFetcher {
	return &RodFetcher{
		log: logger.WithField("component", "rod_fetcher"),
	}
}

// Fetch launches a browser for the URL, waits for load and extracts the metadata.
func (f *RodFetcher) Fetch(ctx context.Context, target string, opts Options) (Outcome, error) {
	log := f.log.WithField("url", target)
	log.Debug("Rendering page")

	path, exists := launcher.LookPath()
	if !exists {
		log.Error("Cannot find browser executable for rod")
		return nil, ErrBrowserNotFound
	}
	controlURL, err := launcher.New().Bin(path).Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err = browser.Connect(); err != nil {
		log.WithError(err).Error("Failed to connect to rod browser")
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Error closing rod browser instance")
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		log.WithError(err).Error("Failed to create rod page")
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = rodPageTimeout
	}
	pageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	page = page.Context(pageCtx)

	if err = page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			log.WithError(pageCtx.Err()).Warn("Rendering timed out")
			return nil, fmt.Errorf("rendering timed out for %s: %w", target, pageCtx.Err())
		}
		return nil, fmt.Errorf("failed waiting for page load: %w", err)
	}

	title := metaContent(page, `meta[property="og:title"]`, `meta[name="twitter:title"]`)
	if title == "" {
		if el, err := page.Element("title"); err == nil {
			if text, err := el.Text(); err == nil {
				title = strings.TrimSpace(text)
			}
		}
	}
	description := metaContent(page,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
		`meta[name="description"]`,
	)
	image := metaContent(page, `meta[property="og:image"]`, `meta[name="twitter:image"]`)
	siteName := metaContent(page, `meta[property="og:site_name"]`)

	if title == "" && description == "" {
		return Failure{Reason: "rendered page has no metadata"}, nil
	}

	log.WithField("title", title).Debug("Rendered page metadata extracted")
	return Success{
		Title:       textnorm.DecodeHTMLEntities(title),
		Description: textnorm.DecodeHTMLEntities(description),
		Image:       image,
		SiteName:    siteName,
		Source:      domain.SourceEnhanced,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// metaContent returns the first non-empty content attribute among the selectors.
// Elements are looked up without waiting since the page has already loaded.
func metaContent(page *rod.Page, selectors ...string) string {
	for _, selector := range selectors {
		has, el, err := page.Has(selector)
		if err != nil || !has {
			continue
		}
		content, err := el.Attribute("content")
		if err != nil || content == nil {
			continue
		}
		if v := strings.TrimSpace(*content); v != "" {
			return v
		}
	}
	return ""
}
