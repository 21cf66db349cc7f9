package textnorm

import (
	"strings"
	"unicode/utf8"
)

const (
	minUsableLength = 3
	snippetLimit    = 40
)

// ResolvePreviewTitle turns a raw fetched title into the display title.
//
// The dominant-language line is used when it is long enough. When the raw title mixed
// Latin and non-Latin scripts and sanitizing dropped the non-Latin part, a short snippet
// of the first non-Latin line is appended so the original language stays visible.
func ResolvePreviewTitle(rawTitle, fallback string) string {
	trimmed := strings.TrimSpace(rawTitle)
	sanitized := SanitizePreviewText(rawTitle)

	if utf8.RuneCountInString(sanitized) >= minUsableLength {
		base := sanitized
		if hasLatin(rawTitle) && hasNonLatin(rawTitle) && sanitized != trimmed {
			if snippet := nonLatinSnippet(rawTitle); snippet != "" &&
				!strings.Contains(strings.ToLower(base), strings.ToLower(snippet)) {
				base = base + " · " + snippet
			}
		}
		return base
	}

	if trimmed != "" {
		return trimmed
	}
	return fallback
}

// ResolvePreviewDescription sanitizes a description, keeping the raw value when
// sanitizing leaves nothing usable.
func ResolvePreviewDescription(rawDescription string) string {
	sanitized := SanitizePreviewText(rawDescription)
	if utf8.RuneCountInString(sanitized) >= minUsableLength {
		return sanitized
	}
	return strings.TrimSpace(rawDescription)
}

func hasLatin(s string) bool {
	return strings.IndexFunc(s, isLatinLetter) >= 0
}

func hasNonLatin(s string) bool {
	return strings.IndexFunc(s, isNonLatinLetter) >= 0
}

func nonLatinSnippet(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if !hasNonLatin(line) {
			continue
		}
		condensed := strings.Join(strings.Fields(line), " ")
		return truncate(condensed, snippetLimit)
	}
	return ""
}

// truncate shortens s to at most limit runes, ending with an ellipsis when cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
