package textnorm

import (
	"strings"
)

const (
	preferredLatinRatio = 0.6
	preferredLatinCount = 16
)

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isRatioScript covers the scripts weighed against Latin when picking a segment.
func isRatioScript(r rune) bool {
	switch {
	case r >= 0x0400 && r <= 0x04FF: // Cyrillic
	case r >= 0x0590 && r <= 0x05FF: // Hebrew
	case r >= 0x0600 && r <= 0x06FF: // Arabic
	case r >= 0x4E00 && r <= 0x9FFF: // CJK
	default:
		return false
	}
	return true
}

// isNonLatinLetter is the wider set used to find a snippet worth keeping in titles.
func isNonLatinLetter(r rune) bool {
	switch {
	case isRatioScript(r):
	case r >= 0x0900 && r <= 0x097F: // Devanagari
	case r >= 0x3040 && r <= 0x30FF: // Hiragana and Katakana
	default:
		return false
	}
	return true
}

func segments(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isPreferredSegment(segment string) bool {
	var latin, other int
	for _, r := range segment {
		switch {
		case isLatinLetter(r):
			latin++
		case isRatioScript(r):
			other++
		}
	}
	if latin >= preferredLatinCount {
		return true
	}
	if latin+other == 0 {
		return false
	}
	return float64(latin)/float64(latin+other) >= preferredLatinRatio
}

var bulletReplacer = strings.NewReplacer("•", " ", "·", " ")

func stripBullets(s string) string {
	return strings.Join(strings.Fields(bulletReplacer.Replace(s)), " ")
}

// SelectDominantLanguageSegment picks the first mostly-Latin line of a multi-language
// string, falling back to the first line.
func SelectDominantLanguageSegment(text string) string {
	segs := segments(text)
	if len(segs) == 0 {
		return stripBullets(strings.TrimSpace(text))
	}
	for _, seg := range segs {
		if isPreferredSegment(seg) {
			return stripBullets(seg)
		}
	}
	return stripBullets(segs[0])
}

// SanitizePreviewText is SelectDominantLanguageSegment with empty input passed through.
func SanitizePreviewText(text string) string {
	if text == "" {
		return text
	}
	return SelectDominantLanguageSegment(text)
}
