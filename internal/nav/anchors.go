package nav

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent folds diacritics so derived anchors match what the document
// compiler generates for accented headings.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// anchorFromTitle derives a section anchor from a heading title: lowercase,
// diacritics folded, punctuation stripped, whitespace collapsed to single
// hyphens.
func anchorFromTitle(title string) string {
	s, _, err := transform.String(deaccent, strings.TrimSpace(title))
	if err != nil {
		s = strings.TrimSpace(title)
	}
	s = strings.ToLower(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	collapsed := strings.Join(strings.Fields(b.String()), "-")
	for strings.Contains(collapsed, "--") {
		collapsed = strings.ReplaceAll(collapsed, "--", "-")
	}
	return strings.Trim(collapsed, "-")
}
