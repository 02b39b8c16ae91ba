package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var yearRegex = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// ExtractYear returns the first 4-digit year found in a source year value
// Returns "" if no year is found
// Matches years like: 2009, "2009", "2019–2021", "(2009)"
func ExtractYear(value string) string {
	matches := yearRegex.FindStringSubmatch(value)
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// FoldTitle lowercases a title, strips diacritics and collapses whitespace
func FoldTitle(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// CompositeKey builds the title+year key used for deduplication
func CompositeKey(title, year string) string {
	return FoldTitle(title) + "|" + ExtractYear(year)
}

// TitleDistance returns the Levenshtein distance between two folded titles
// normalized by the longer title, in the range [0, 1]
func TitleDistance(a, b string) float64 {
	fa, fb := FoldTitle(a), FoldTitle(b)
	longest := len([]rune(fa))
	if n := len([]rune(fb)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(fa, fb)) / float64(longest)
}
