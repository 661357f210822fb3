package schema

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a field name for comparison: lowercase, with every
// character that is not a letter or digit removed (spaces, punctuation,
// underscores). The result is used for matching only, never as an identifier.
func Normalize(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
