// Package textnorm normalizes track titles and free-text search queries
// before they are handed to upstream search sources.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	videoNoiseRegex = regexp.MustCompile(`(?i)\s*[\(\[]\s*(official\s+(music\s+)?(video|audio)|lyric\s+video|lyrics|visualizer|hd|4k)\s*[\)\]]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// CleanTitle strips common video-upload noise such as "(Official Video)" or
// "[Lyrics]" from a track title. Idempotent.
func CleanTitle(title string) string {
	title = videoNoiseRegex.ReplaceAllString(title, "")
	title = whitespaceRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// NormalizeQuery prepares a free-text query for the search source: NFKD
// decomposition with combining marks removed, collapsed whitespace, lower
// case. Diacritics in user text otherwise depress search recall.
func NormalizeQuery(query string) string {
	query = norm.NFKD.String(query)

	var b strings.Builder
	for _, r := range query {
		if !unicode.IsMark(r) {
			b.WriteRune(r)
		}
	}
	query = b.String()

	query = whitespaceRegex.ReplaceAllString(query, " ")
	return strings.ToLower(strings.TrimSpace(query))
}
