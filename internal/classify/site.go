// Package classify inspects URLs to decide which site they belong to and how their
// media is shaped. Every function is pure and never fails: malformed input yields
// the conservative answer.
package classify

import (
	"net/url"
	"strings"

	"linksvault/internal/domain"
)

// Canonical site names.
const (
	SiteInstagram = "Instagram"
	SiteFacebook  = "Facebook"
	SiteYouTube   = "YouTube"
	SiteTikTok    = "TikTok"
	SiteX         = "X (Twitter)"
	SiteLinkedIn  = "LinkedIn"
	SiteReddit    = "Reddit"
)

type siteRule struct {
	domains []string
	name    string
}

// siteTable is evaluated in order; the first matching rule wins.
var siteTable = []siteRule{
	{domains: []string{"instagram.com"}, name: SiteInstagram},
	{domains: []string{"facebook.com", "fb.com"}, name: SiteFacebook},
	{domains: []string{"youtube.com", "youtu.be"}, name: SiteYouTube},
	{domains: []string{"tiktok.com"}, name: SiteTikTok},
	{domains: []string{"twitter.com", "x.com"}, name: SiteX},
	{domains: []string{"linkedin.com"}, name: SiteLinkedIn},
	{domains: []string{"reddit.com"}, name: SiteReddit},
}

// parse returns the URL with a lower-cased host, tolerating a missing scheme.
func parse(rawURL string) (*url.URL, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, false
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, false
	}
	u.Host = strings.ToLower(u.Hostname())
	return u, true
}

// hostIs matches a host against a registrable domain or any of its subdomains.
func hostIs(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func hostIsAny(host string, domains ...string) bool {
	for _, d := range domains {
		if hostIs(host, d) {
			return true
		}
	}
	return false
}

// IdentifySite returns the canonical platform name for a URL, or its bare hostname.
func IdentifySite(rawURL string) string {
	u, ok := parse(rawURL)
	if !ok {
		return domain.UnknownSite
	}
	host := u.Host
	for _, rule := range siteTable {
		if hostIsAny(host, rule.domains...) {
			return rule.name
		}
	}
	return strings.TrimPrefix(host, "www.")
}

// NormalizeSiteName cleans a site name reported by a fetcher. An empty name is derived
// from the URL and any TikTok variant collapses to the canonical "TikTok".
func NormalizeSiteName(rawSiteName, rawURL string) string {
	name := strings.TrimSpace(rawSiteName)
	if name == "" {
		name = IdentifySite(rawURL)
	}
	if strings.Contains(strings.ToLower(name), "tiktok") {
		return SiteTikTok
	}
	return name
}
