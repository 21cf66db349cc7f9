package domain

import (
	"net/url"
	"strings"
)

// LinkEntry represents a link saved by a user into a collection.
type LinkEntry struct {
	// URL is the trimmed absolute URL. It is unique within a collection by its comparison key.
	URL string `json:"url"`

	// Title is the display fallback. It equals URL until a preview has been resolved.
	Title string `json:"title"`

	// CustomTitle is the user's override, nil when never set.
	CustomTitle *string `json:"customTitle"`

	// IsCustomTitle becomes true once the user explicitly edits the title.
	IsCustomTitle bool `json:"isCustomTitle"`

	IsFavorite bool `json:"isFavorite"`

	// Timestamp is the ISO-8601 creation time. Legacy entries carry LegacyTimestamp(URL).
	Timestamp string `json:"timestamp"`
}

// UserTitle returns the custom title when the user has set one.
func (l LinkEntry) UserTitle() (string, bool) {
	if !l.IsCustomTitle || l.CustomTitle == nil {
		return "", false
	}
	title := strings.TrimSpace(*l.CustomTitle)
	if title == "" {
		return "", false
	}
	return title, true
}

// Key returns the comparison key used for uniqueness and storage.
func (l LinkEntry) Key() string {
	return NormalizeURLForComparison(l.URL)
}

// LegacyTimestamp synthesizes the timestamp of entries saved before timestamps existed.
func LegacyTimestamp(rawURL string) string {
	return "legacy_" + strings.ToLower(rawURL)
}

// NormalizeURL trims a user-submitted URL and makes it absolute.
// A missing scheme defaults to https when the input looks like a domain.
func NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrInvalidURL
	}

	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(lower, "://") || !strings.Contains(rawURL, ".") {
			return "", ErrInvalidURL
		}
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}

// NormalizeURLForComparison builds the key two URLs must share to count as the same link.
// The http/https scheme, a leading "www." and a trailing slash are ignored, the host is
// lower-cased and the query is kept. Unparseable input falls back to the trimmed,
// lower-cased string.
func NormalizeURLForComparison(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	fallback := strings.ToLower(trimmed)

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return fallback
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fallback
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimRight(u.EscapedPath(), "/")

	var b strings.Builder
	b.WriteString(host)
	b.WriteString(path)
	if u.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteString("#")
		b.WriteString(u.EscapedFragment())
	}
	return b.String()
}
