package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents removes diacritical marks, mapping "Ração" to "Racao".
func FoldAccents(value string) string {
	folded, _, err := transform.String(accentStripper, value)
	if err != nil {
		return value
	}
	return folded
}

// Slugify lowercases the value, folds accents, and collapses any run of
// non-alphanumeric characters into a single hyphen.
func Slugify(value string) string {
	folded := strings.ToLower(FoldAccents(strings.TrimSpace(value)))

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
