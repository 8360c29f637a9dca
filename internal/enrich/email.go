package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/toxscout/toxscout/internal/lead"
)

// Legal-entity suffixes stripped before inferring a company domain.
var legalSuffixes = []string{"inc", "llc", "ltd", "corporation", "corp", "company", "co"}

// Email derives a plausible first.last@company.com business address. It is
// deterministic and makes no external calls; when the name or company gives
// nothing usable it fails soft with an empty string.
type Email struct{}

func NewEmail() *Email {
	return &Email{}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Enrich(_ context.Context, p lead.Profile) (lead.Profile, error) {
	p.Email = GenerateEmail(p.Name, p.Company)
	return p, nil
}

// GenerateEmail builds the most common corporate pattern. A single-token
// name or a company with no usable domain yields "".
func GenerateEmail(name, company string) string {
	parts := strings.Fields(strings.ToLower(name))
	if len(parts) < 2 {
		return ""
	}

	first := stripNonAlpha(parts[0])
	last := stripNonAlpha(parts[len(parts)-1])
	domain := inferDomain(company)

	if first == "" || last == "" || domain == "" {
		return ""
	}

	return fmt.Sprintf("%s.%s@%s", first, last, domain)
}

// inferDomain guesses the company web domain by dropping legal suffixes and
// all non-alphanumeric characters from the name.
func inferDomain(company string) string {
	cleaned := strings.ToLower(company)
	for _, suffix := range legalSuffixes {
		cleaned = stripSuffixWord(cleaned, suffix)
	}

	var b strings.Builder
	for _, r := range cleaned {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return ""
	}
	return b.String() + ".com"
}

// stripSuffixWord removes whitespace-delimited occurrences of word, mirroring
// a \s+word\b removal: " inc" goes away, "incredible" stays intact.
func stripSuffixWord(s, word string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for i, f := range fields {
		if i > 0 && trimWordPunct(f) == word {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func trimWordPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

func stripNonAlpha(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
