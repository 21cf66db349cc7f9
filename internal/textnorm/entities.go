// Package textnorm cleans the text that fetchers bring back: HTML entities,
// multi-language titles, platform noise and search keys.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var entityRe = regexp.MustCompile(`&(#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|quot|amp|lt|gt|apos);`)

var namedEntities = map[string]string{
	"quot": `"`,
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"apos": "'",
}

// DecodeHTMLEntities decodes numeric entities and the five standard named ones in a
// single pass. Any other entity is left untouched.
func DecodeHTMLEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return entityRe.ReplaceAllStringFunc(text, func(entity string) string {
		body := entity[1 : len(entity)-1]
		if named, ok := namedEntities[body]; ok {
			return named
		}

		var (
			n   int64
			err error
		)
		if body[1] == 'x' || body[1] == 'X' {
			n, err = strconv.ParseInt(body[2:], 16, 32)
		} else {
			n, err = strconv.ParseInt(body[1:], 10, 32)
		}
		if err != nil || n == 0 || !utf8.ValidRune(rune(n)) {
			return entity
		}
		return string(rune(n))
	})
}
