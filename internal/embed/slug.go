package embed

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphens      = regexp.MustCompile(`-+`)
)

// Slug turns a title into the lowercase hyphenated form used by title-based providers:
// "The Movie: Part Two!" becomes "the-movie-part-two". Accented letters are folded to
// their base letter before anything else is stripped.
func Slug(title string) string {
	s := strings.ToLower(foldAccents(title))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// foldAccents removes combining marks: "Pokémon" -> "Pokemon".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
