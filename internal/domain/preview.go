package domain

import (
	"strings"
	"time"
)

// Placeholder and terminal strings shared by every producer and consumer of previews.
const (
	LoadingTitle       = "Loading preview..."
	LoadingDescription = "Fetching link information..."
	UnavailableTitle   = "Preview unavailable"
	UnknownSite        = "Unknown site"
	FallbackDesc       = "Click to view the full content"
	UntitledTitle      = "Untitled"
)

// Source tags identifying the strategy that produced a record.
const (
	SourceModular   = "modular"
	SourceMicrolink = "microlink"
	SourceEnhanced  = "enhanced"
	SourceFallback  = "fallback"
	SourceRefetch   = "refetch"
	SourceCustom    = "custom"
	SourceError     = "error"
	SourceUnknown   = "unknown"
)

// PreviewRecord is the resolved preview for a URL, shared by every link that references it.
type PreviewRecord struct {
	URL           string    `json:"url,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Image         *string   `json:"image"`
	SiteName      string    `json:"siteName"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source,omitempty"`
	IsCustomTitle bool      `json:"isCustomTitle,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// IsBroken reports whether a stored record must not be trusted and has to be refetched.
func (p PreviewRecord) IsBroken() bool {
	title := strings.TrimSpace(p.Title)
	return title == "" || title == LoadingTitle || title == UnavailableTitle
}

// IsPlaceholder reports whether the record is the transient loading record.
func (p PreviewRecord) IsPlaceholder() bool {
	return p.Title == LoadingTitle
}

// Age returns how long ago the record was resolved.
func (p PreviewRecord) Age(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}

// ImageURL returns the image URL or an empty string.
func (p PreviewRecord) ImageURL() string {
	if p.Image == nil {
		return ""
	}
	return *p.Image
}

// WithUserTitle forces the user's custom title onto the record.
func (p PreviewRecord) WithUserTitle(link LinkEntry) PreviewRecord {
	if title, ok := link.UserTitle(); ok {
		p.Title = title
		p.IsCustomTitle = true
	}
	return p
}

// NewPlaceholder builds the transient record published while fetchers run.
func NewPlaceholder(rawURL string, now time.Time) PreviewRecord {
	return PreviewRecord{
		URL:         rawURL,
		Title:       LoadingTitle,
		Description: LoadingDescription,
		SiteName:    UnknownSite,
		Timestamp:   now,
	}
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DocumentID derives the remote document id for a URL: the trimmed URL is
// percent-encoded as a URI component and every character outside [A-Za-z0-9]
// becomes "_". Ids are shared with documents written by other clients, so the
// encoding leaves A-Z a-z 0-9 - _ . ! ~ * ' ( ) unescaped.
func DocumentID(rawURL string) string {
	encoded := encodeURIComponent(strings.TrimSpace(rawURL))
	var b strings.Builder
	b.Grow(len(encoded))
	for i := 0; i < len(encoded); i++ {
		if c := encoded[i]; isAlphaNum(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlphaNum(c) || strings.IndexByte("-_.!~*'()", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
