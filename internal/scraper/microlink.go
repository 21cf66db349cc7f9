package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"linksvault/internal/domain"
	"linksvault/internal/textnorm"
)

// DefaultMicrolinkEndpoint is the public Microlink metadata API.
const DefaultMicrolinkEndpoint = "https://api.microlink.io/"

// MicrolinkFetcher asks the Microlink API for the page metadata.
type MicrolinkFetcher struct {
	endpoint string
	client   *http.Client
	log      logrus.FieldLogger
}

// NewMicrolinkFetcher creates the fetcher for the given API endpoint.
func NewMicrolinkFetcher(endpoint string, client *http.Client, logger logrus.FieldLogger) *MicrolinkFetcher {
	if endpoint == "" {
		endpoint = DefaultMicrolinkEndpoint
	}
	return &MicrolinkFetcher{
		endpoint: endpoint,
		client:   client,
		log:      logger.WithField("component", "microlink_fetcher"),
	}
}

type microlinkAsset struct {
	URL string `json:"url"`
}

type microlinkResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Publisher   string          `json:"publisher"`
		Image       *microlinkAsset `json:"image"`
		Logo        *microlinkAsset `json:"logo"`
	} `json:"data"`
}

// Fetch queries the API. Any status other than "success" is a Failure.
func (f *MicrolinkFetcher) Fetch(ctx context.Context, target string, opts Options) (Outcome, error) {
	ctx, cancel := withTimeout(ctx, opts)
	defer cancel()

	endpoint, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid microlink endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("url", target)
	endpoint.RawQuery = query.Encode()

	resp, err := get(ctx, f.client, endpoint.String(), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data microlinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Failure{Reason: fmt.Sprintf("microlink HTTP %d", resp.StatusCode)}, nil
		}
		return nil, fmt.Errorf("failed to parse microlink response: %w", err)
	}

	if data.Status != "success" {
		f.log.WithFields(logrus.Fields{"url": target, "status": data.Status}).Debug("Microlink returned no data")
		return Failure{Reason: "microlink: " + data.Status + " " + data.Message}, nil
	}

	var image string
	switch {
	case data.Data.Image != nil && data.Data.Image.URL != "":
		image = data.Data.Image.URL
	case data.Data.Logo != nil:
		image = data.Data.Logo.URL
	}

	return Success{
		Title:       textnorm.DecodeHTMLEntities(data.Data.Title),
		Description: textnorm.DecodeHTMLEntities(data.Data.Description),
		Image:       image,
		SiteName:    data.Data.Publisher,
		Source:      domain.SourceMicrolink,
		Timestamp:   time.Now().UTC(),
	}, nil
}
