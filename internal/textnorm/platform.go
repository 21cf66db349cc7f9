package textnorm

import (
	"regexp"
	"strings"
)

const quoteChars = "\"'`“”‘’„‟‚‛«»‹›「」『』＂＇〝〞"

var (
	// `Jane Doe on Instagram: "caption"`: drop everything up to the first colon.
	// A colon with nothing after it is left alone.
	colonPrefixRe = regexp.MustCompile(`^[^:]*:\s*(\S)`)
	// `caption - jane.doe ... on Instagram`
	instagramHandleSuffixRe = regexp.MustCompile(`(?i)\s*[-–—|•·]\s*@?[\p{L}\p{N}._]+.*?\bon\s+instagram\s*:?\s*$`)
	// `caption on Instagram:`
	instagramTrailingRe = regexp.MustCompile(`(?i)\s*\bon\s+instagram\s*:?\s*$`)
	handleRe            = regexp.MustCompile(`(^|\s)@[\p{L}\p{N}._]+`)
)

// CleanPlatformTitleNoise strips the boilerplate Instagram wraps around post titles:
// "on Instagram" markers, the "author:" prefix, author handles and surrounding quotes.
// The cleanup is applied until nothing changes, so the result is stable under
// repeated application.
func CleanPlatformTitleNoise(title string) string {
	s := title
	for {
		next := cleanNoisePass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanNoisePass(s string) string {
	s = instagramHandleSuffixRe.ReplaceAllString(s, "")
	s = instagramTrailingRe.ReplaceAllString(s, "")
	s = colonPrefixRe.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, quoteChars)
	s = handleRe.ReplaceAllString(s, "$1")
	return strings.Join(strings.Fields(s), " ")
}
