package classify

import (
	"net/url"
	"strings"
)

// Preferred card aspect ratios (width / height).
const (
	AspectLandscape = 16.0 / 9.0
	AspectPortrait  = 9.0 / 16.0
	AspectSquare    = 1.0
	AspectLinkCard  = 1.91
)

// Classification bundles everything the classifier knows about a URL.
type Classification struct {
	Site         string
	VideoLike    bool
	Landscape    bool
	Portrait     bool
	StandardPost bool
}

// AspectRatio returns the preferred width/height ratio for rendering the preview.
func (c Classification) AspectRatio() float64 {
	switch {
	case c.Landscape:
		return AspectLandscape
	case c.Portrait && !c.StandardPost:
		return AspectPortrait
	case c.StandardPost:
		return AspectSquare
	default:
		return AspectLinkCard
	}
}

// Classify runs every classifier over a URL.
func Classify(rawURL string) Classification {
	return Classification{
		Site:         IdentifySite(rawURL),
		VideoLike:    IsVideoLike(rawURL),
		Landscape:    IsLandscapeVideo(rawURL),
		Portrait:     IsPortraitMedia(rawURL),
		StandardPost: IsStandardPost(rawURL),
	}
}

// IsVideoLike reports whether the URL points at a video platform.
func IsVideoLike(rawURL string) bool {
	u, ok := parse(rawURL)
	if !ok {
		return false
	}
	return hostIsAny(u.Host, "youtube.com", "youtu.be", "tiktok.com")
}

// IsLandscapeVideo reports whether the URL is a regular (16:9) YouTube video.
// Shorts are portrait and never match.
func IsLandscapeVideo(rawURL string) bool {
	u, ok := parse(rawURL)
	if !ok {
		return false
	}
	if hostIs(u.Host, "youtu.be") {
		return true
	}
	if !hostIs(u.Host, "youtube.com") {
		return false
	}
	path := strings.ToLower(u.Path)
	if strings.HasPrefix(path, "/shorts") {
		return false
	}
	return strings.HasPrefix(path, "/watch") || u.Query().Has("v")
}

// IsPortraitMedia reports whether the URL is vertical media: TikTok, Instagram reels,
// stories and posts, and YouTube Shorts.
func IsPortraitMedia(rawURL string) bool {
	u, ok := parse(rawURL)
	if !ok {
		return false
	}
	path := strings.ToLower(u.Path)
	switch {
	case hostIs(u.Host, "tiktok.com"):
		return true
	case hostIs(u.Host, "instagram.com"):
		for _, marker := range []string{"/reel", "/reels", "/stories", "/p/", "/tv/"} {
			if strings.Contains(path, marker) {
				return true
			}
		}
		return queryKeyContains(u, "reel", "post")
	case hostIs(u.Host, "youtube.com"):
		return strings.HasPrefix(path, "/shorts")
	}
	return false
}

// IsStandardPost reports whether the URL is a regular Instagram feed post.
func IsStandardPost(rawURL string) bool {
	u, ok := parse(rawURL)
	if !ok || !hostIs(u.Host, "instagram.com") {
		return false
	}
	path := strings.ToLower(u.Path)
	if strings.Contains(path, "/p/") || strings.Contains(path, "/tv/") {
		return true
	}
	return queryKeyContains(u, "post")
}

// queryKeyContains matches query parameter names, never values.
func queryKeyContains(u *url.URL, needles ...string) bool {
	for key := range u.Query() {
		lower := strings.ToLower(key)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
	}
	return false
}
