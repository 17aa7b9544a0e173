package event

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var (
	stripTags = bluemonday.StrictPolicy()

	// nonSlug matches runs of characters that cannot appear in a slug
	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)
)

// CleanText strips markup from scraped text, decodes entities, folds
// compatibility characters (non-breaking spaces, ligatures) and collapses
// whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = stripTags.Sanitize(s)
	s = html.UnescapeString(s)
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Slugify derives a venue slug: transliterated, lowercased, with every run of
// non-alphanumeric characters replaced by a single hyphen.
func Slugify(name string) string {
	s := strings.ToLower(unidecode.Unidecode(name))
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
