package scraper

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"linksvault/internal/textnorm"
)

// SourceOEmbed tags records produced from an oEmbed provider.
const SourceOEmbed = "oembed"

//go:embed oembed_providers.json
var oembedProvidersJSON []byte

// OEmbedProvider is an oEmbed endpoint with its compiled URL schemes.
type OEmbedProvider struct {
	Name     string
	Endpoint string
	Schemes  []*regexp.Regexp
}

// OEmbedRegistry matches URLs to oEmbed providers.
type OEmbedRegistry struct {
	providers []*OEmbedProvider
}

// rawProvider matches the structure of oembed.com/providers.json.
type rawProvider struct {
	ProviderName string `json:"provider_name"`
	ProviderURL  string `json:"provider_url"`
	Endpoints    []struct {
		Schemes []string `json:"schemes"`
		URL     string   `json:"url"`
	} `json:"endpoints"`
}

// NewOEmbedRegistry loads the embedded provider list.
func NewOEmbedRegistry() (*OEmbedRegistry, error) {
	return ParseOEmbedRegistry(oembedProvidersJSON)
}

// ParseOEmbedRegistry builds a registry from a providers.json document.
// Providers without an endpoint or a valid scheme are skipped.
func ParseOEmbedRegistry(data []byte) (*OEmbedRegistry, error) {
	var rawProviders []rawProvider
	if err := json.Unmarshal(data, &rawProviders); err != nil {
		return nil, fmt.Errorf("failed to parse oEmbed providers: %w", err)
	}

	registry := &OEmbedRegistry{providers: make([]*OEmbedProvider, 0, len(rawProviders))}
	for _, raw := range rawProviders {
		if len(raw.Endpoints) == 0 || raw.Endpoints[0].URL == "" {
			continue
		}
		endpoint := raw.Endpoints[0]

		provider := &OEmbedProvider{
			Name:     raw.ProviderName,
			Endpoint: endpoint.URL,
			Schemes:  make([]*regexp.Regexp, 0, len(endpoint.Schemes)),
		}
		for _, scheme := range endpoint.Schemes {
			re, err := regexp.Compile(schemeToRegex(scheme))
			if err != nil {
				continue
			}
			provider.Schemes = append(provider.Schemes, re)
		}
		if len(provider.Schemes) > 0 {
			registry.providers = append(registry.providers, provider)
		}
	}
	return registry, nil
}

// Match finds the provider for a URL, or nil. Plain http URLs match the https schemes.
func (r *OEmbedRegistry) Match(rawURL string) *OEmbedProvider {
	candidate := strings.TrimSpace(rawURL)
	if strings.HasPrefix(strings.ToLower(candidate), "http://") {
		candidate = "https://" + candidate[len("http://"):]
	}
	for _, provider := range r.providers {
		for _, pattern := range provider.Schemes {
			if pattern.MatchString(candidate) {
				return provider
			}
		}
	}
	return nil
}

// Len returns the number of registered providers.
func (r *OEmbedRegistry) Len() int {
	return len(r.providers)
}

// schemeToRegex converts an oEmbed scheme pattern to an anchored regex:
// "https://*.youtube.com/watch*" becomes "^https://.*\.youtube\.com/watch.*$".
func schemeToRegex(scheme string) string {
	pattern := regexp.QuoteMeta(scheme)
	pattern = strings.ReplaceAll(pattern, `\*`, ".*")
	pattern = strings.ReplaceAll(pattern, `\?`, ".")
	return "^" + pattern + "$"
}

// oEmbedResponse is the standard oEmbed JSON response.
type oEmbedResponse struct {
	Type         string      `json:"type"`
	Version      interface{} `json:"version"` // "1.0" or 1.0 depending on the provider
	Title        string      `json:"title"`
	AuthorName   string      `json:"author_name"`
	ProviderName string      `json:"provider_name"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Description  string      `json:"description"`
}

// OEmbedFetcher resolves previews through the provider's oEmbed endpoint.
type OEmbedFetcher struct {
	registry *OEmbedRegistry
	client   *http.Client
	log      logrus.FieldLogger
}

// NewOEmbedFetcher creates an oEmbed fetcher over a registry.
func NewOEmbedFetcher(registry *OEmbedRegistry, client *http.Client, logger logrus.FieldLogger) *OEmbedFetcher {
	return &OEmbedFetcher{
		registry: registry,
		client:   client,
		log:      logger.WithField("component", "oembed_fetcher"),
	}
}

// Supports reports whether a provider is registered for the URL.
func (f *OEmbedFetcher) Supports(rawURL string) bool {
	return f.registry.Match(rawURL) != nil
}

// Fetch queries the matching provider. Returns ErrNoAdapter when none matches.
func (f *OEmbedFetcher) Fetch(ctx context.Context, target string, opts Options) (Outcome, error) {
	provider := f.registry.Match(target)
	if provider == nil {
		return nil, ErrNoAdapter
	}

	ctx, cancel := withTimeout(ctx, opts)
	defer cancel()

	log := f.log.WithFields(logrus.Fields{"url": target, "provider": provider.Name})

	apiURL, err := buildOEmbedURL(provider.Endpoint, target)
	if err != nil {
		return nil, fmt.Errorf("failed to build oEmbed URL: %w", err)
	}

	resp, err := get(ctx, f.client, apiURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oEmbed data from %s: %w", provider.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Debug("oEmbed endpoint returned non-200")
		return statusFailure(resp), nil
	}

	var data oEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse oEmbed response: %w", err)
	}

	if strings.TrimSpace(data.Title) == "" {
		return Failure{Reason: provider.Name + " oEmbed returned no title"}, nil
	}

	description := data.Description
	if description == "" && data.AuthorName != "" {
		description = "By " + data.AuthorName
	}
	siteName := data.ProviderName
	if siteName == "" {
		siteName = provider.Name
	}

	log.WithField("title", data.Title).Debug("oEmbed extraction successful")
	return Success{
		Title:       textnorm.DecodeHTMLEntities(data.Title),
		Description: textnorm.DecodeHTMLEntities(description),
		Image:       data.ThumbnailURL,
		SiteName:    siteName,
		Source:      SourceOEmbed,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// buildOEmbedURL adds the url and format parameters to a provider endpoint.
func buildOEmbedURL(endpoint, resourceURL string) (string, error) {
	endpoint = strings.ReplaceAll(endpoint, "{format}", "json")

	base, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint URL: %w", err)
	}
	query := base.Query()
	query.Set("url", resourceURL)
	query.Set("format", "json")
	base.RawQuery = query.Encode()
	return base.String(), nil
}
