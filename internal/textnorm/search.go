package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var combiningDiacritics = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036F, Stride: 1}},
}

// NormalizeSearchText builds the key used to match user queries against titles:
// NFKC text, no combining diacritics, lower-cased, single-spaced and trimmed.
//
// Text is decomposed first so accents on precomposed letters are removed too.
// A failing transform leaves the text as it was at that step.
func NormalizeSearchText(text string) string {
	s := norm.NFKD.String(text)
	s = cases.Lower(language.Und).String(s)

	t := transform.Chain(runes.Remove(runes.In(combiningDiacritics)), norm.NFKC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	return strings.Join(strings.Fields(s), " ")
}
