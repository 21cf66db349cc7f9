package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"linksvault/internal/textnorm"
)

// SourceHTML tags records produced by the generic meta-tag fetcher.
const SourceHTML = "html"

// HTMLFetcher reads Open Graph, Twitter card and plain meta tags from the page itself.
type HTMLFetcher struct {
	client *http.Client
	log    logrus.FieldLogger
}

// NewHTMLFetcher creates the generic fetcher.
func NewHTMLFetcher(client *http.Client, logger logrus.FieldLogger) *HTMLFetcher {
	return &HTMLFetcher{
		client: client,
		log:    logger.WithField("component", "html_fetcher"),
	}
}

// pageMeta is what one pass over the document collects.
type pageMeta struct {
	meta  map[string]string
	title string
}

func (p pageMeta) first(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(p.meta[k]); v != "" {
			return v
		}
	}
	return ""
}

// Fetch downloads the page and extracts its preview metadata.
func (f *HTMLFetcher) Fetch(ctx context.Context, target string, opts Options) (Outcome, error) {
	ctx, cancel := withTimeout(ctx, opts)
	defer cancel()

	log := f.log.WithField("url", target)

	resp, err := get(ctx, f.client, target, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Debug("Page returned non-success status")
		return statusFailure(resp), nil
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := extractPageMeta(doc)
	title := page.first("og:title", "twitter:title")
	if title == "" {
		title = page.title
	}
	description := page.first("og:description", "twitter:description", "description")
	image := page.first("og:image", "og:image:secure_url", "og:image:url", "twitter:image", "twitter:image:src")

	if title == "" && description == "" {
		log.Debug("No metadata found in page")
		return Failure{Reason: "no metadata in page"}, nil
	}

	base := resp.Request.URL
	if image != "" && base != nil {
		image = resolveReference(base, image)
	}

	log.WithField("title", title).Debug("Extracted page metadata")
	return Success{
		Title:       textnorm.DecodeHTMLEntities(title),
		Description: textnorm.DecodeHTMLEntities(description),
		Image:       image,
		SiteName:    textnorm.DecodeHTMLEntities(page.first("og:site_name", "application-name")),
		Source:      SourceHTML,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// extractPageMeta walks the document once. The first occurrence of each meta key wins.
func extractPageMeta(n *html.Node) pageMeta {
	page := pageMeta{meta: make(map[string]string)}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var key, content string
				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "property", "name", "itemprop":
						if key == "" {
							key = strings.ToLower(strings.TrimSpace(attr.Val))
						}
					case "content":
						content = attr.Val
					}
				}
				if key != "" && content != "" {
					if _, seen := page.meta[key]; !seen {
						page.meta[key] = content
					}
				}
			case "title":
				if page.title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					page.title = strings.Join(strings.Fields(n.FirstChild.Data), " ")
				}
			case "body":
				// Metadata lives in <head>; skip the body except for a stray <title>.
				if page.title != "" {
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return page
}

func resolveReference(base *url.URL, href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(parsed).String()
}
