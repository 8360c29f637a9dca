package harvest

import (
	"strings"
	"unicode"
)

// KeyFunc maps an author name to a deduplication key. Aggregation joins
// entries whose names produce the same key, so the strategy decides how
// tolerant merging is to name variants.
type KeyFunc func(name string) string

// ExactNameKey reproduces plain string-equality deduplication. Kept for
// comparison; it splits authors on middle initials and diacritics.
func ExactNameKey(name string) string {
	return name
}

// NormalizedNameKey folds case, strips diacritics and punctuation, and
// collapses whitespace, so "José M. Pérez" and "Jose Perez " merge only
// when the remaining tokens agree. Middle tokens are dropped when the
// first and last survive, which merges "Jane M Doe" with "Jane Doe".
func NormalizedNameKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(foldAccent(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	if len(tokens) == 0 {
		return ""
	}
	if len(tokens) > 2 {
		tokens = []string{tokens[0], tokens[len(tokens)-1]}
	}
	return strings.Join(tokens, " ")
}

// foldAccent maps common Latin accented letters to their base form. Full
// Unicode normalization is overkill for bibliographic author names.
func foldAccent(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ä', 'ã', 'å':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'ö', 'õ', 'ø':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	case 'ñ':
		return 'n'
	}
	return r
}
