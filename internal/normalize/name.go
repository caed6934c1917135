package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Name reduces an organization name to a deduplication key: NFKC form,
// lowercased, whitespace collapsed, punctuation stripped except word
// characters, internal whitespace, dashes and Thai script. The result is
// never shown to users.
func Name(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	n := norm.NFKC.String(raw)
	n = strings.ToLower(n)

	var b strings.Builder
	b.Grow(len(n))
	for _, r := range n {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '-' || r == '_':
			b.WriteRune(r)
		case r >= 0x0E00 && r <= 0x0E7F: // Thai block, incl. combining marks
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
