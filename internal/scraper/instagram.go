package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"linksvault/internal/classify"
	"linksvault/internal/textnorm"
)

// SourceInstagram tags records produced by the Instagram adapter.
const SourceInstagram = "instagram"

// DefaultInstagramGraphEndpoint is the Graph API oEmbed endpoint used when a token is configured.
const DefaultInstagramGraphEndpoint = "https://graph.facebook.com/v19.0/instagram_oembed"

// InstagramFetcher uses the Graph oEmbed API when a token is available and
// otherwise falls back to reading the public page anonymously.
type InstagramFetcher struct {
	graphEndpoint string
	client        *http.Client
	page          *HTMLFetcher
	log           logrus.FieldLogger
}

// NewInstagramFetcher creates the Instagram adapter.
func NewInstagramFetcher(graphEndpoint string, client *http.Client, page *HTMLFetcher, logger logrus.FieldLogger) *InstagramFetcher {
	if graphEndpoint == "" {
		graphEndpoint = DefaultInstagramGraphEndpoint
	}
	return &InstagramFetcher{
		graphEndpoint: graphEndpoint,
		client:        client,
		page:          page,
		log:           logger.WithField("component", "instagram_fetcher"),
	}
}

// Fetch resolves an Instagram post, reel or profile.
func (f *InstagramFetcher) Fetch(ctx context.Context, target string, opts Options) (Outcome, error) {
	if classify.IdentifySite(target) != classify.SiteInstagram {
		return nil, ErrNoAdapter
	}
	log := f.log.WithField("url", target)

	if opts.InstagramToken != "" {
		outcome, err := f.fetchGraph(ctx, target, opts)
		if err == nil {
			if _, ok := outcome.(Success); ok {
				return outcome, nil
			}
		}
		log.WithError(err).Debug("Graph oEmbed unavailable, trying anonymous fetch")
	}

	outcome, err := f.page.Fetch(ctx, target, opts)
	if err != nil {
		return nil, err
	}
	success, ok := outcome.(Success)
	if !ok {
		return outcome, nil
	}

	success.Title = textnorm.CleanPlatformTitleNoise(success.Title)
	success.Description = textnorm.CleanPlatformTitleNoise(success.Description)
	success.SiteName = classify.SiteInstagram
	success.Source = SourceInstagram
	if success.Title == "" && success.Description == "" {
		return Failure{Reason: "instagram page carried only boilerplate"}, nil
	}
	return success, nil
}

type instagramGraphResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (f *InstagramFetcher) fetchGraph(ctx context.Context, target string, opts Options) (Outcome, error) {
	ctx, cancel := withTimeout(ctx, opts)
	defer cancel()

	endpoint, err := url.Parse(f.graphEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid graph endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("url", target)
	query.Set("access_token", opts.InstagramToken)
	query.Set("fields", "title,author_name,provider_name,thumbnail_url")
	endpoint.RawQuery = query.Encode()

	resp, err := get(ctx, f.client, endpoint.String(), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusFailure(resp), nil
	}

	var data instagramGraphResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse graph response: %w", err)
	}

	title := textnorm.CleanPlatformTitleNoise(textnorm.DecodeHTMLEntities(data.Title))
	if title == "" {
		return Failure{Reason: "graph oEmbed returned no title"}, nil
	}
	var description string
	if author := strings.TrimSpace(data.AuthorName); author != "" {
		description = "By " + author
	}

	return Success{
		Title:       title,
		Description: description,
		Image:       data.ThumbnailURL,
		SiteName:    classify.SiteInstagram,
		Source:      SourceInstagram,
		Timestamp:   time.Now().UTC(),
	}, nil
}
