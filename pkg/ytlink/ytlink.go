// Package ytlink classifies user-supplied strings into canonical YouTube
// identifiers. Matching is an ordered list of pattern/normalizer rules
// evaluated in fixed precedence; collection context always wins over a
// single-item match on the same string.
package ytlink

import (
	"regexp"
	"strings"

	"tunepipe/internal/core"
)

var (
	collectionPattern = regexp.MustCompile(
		`^(?:https?://)?(?:www\.|m\.)?(?:youtube\.com|music\.youtube\.com)/` +
			`(?:playlist|watch)\?.*\blist=([\w-]+)`)
	watchPattern = regexp.MustCompile(
		`^(?:https?://)?(?:www\.|m\.)?(?:youtube\.com|music\.youtube\.com)/` +
			`(?:watch\?v=|embed/|v/)([\w-]{11})(?:[?&#]|$)`)
	shortLinkPattern = regexp.MustCompile(
		`^(?:https?://)?youtu\.be/([\w-]{11})(?:[?&#]|$)`)
	shortsPattern = regexp.MustCompile(
		`^(?:https?://)?(?:www\.|m\.)?youtube\.com/shorts/([\w-]{11})(?:[?&#]|$)`)
)

type rule struct {
	kind    core.LinkKind
	pattern *regexp.Regexp
}

// Collection precedes every single-item rule so that a watch URL carrying a
// list parameter classifies as a collection.
var rules = []rule{
	{core.KindCollection, collectionPattern},
	{core.KindSingle, watchPattern},
	{core.KindSingle, shortLinkPattern},
	{core.KindSingle, shortsPattern},
}

// Classify matches input against the known link shapes and returns a
// canonical identifier. Unmatched or empty input yields KindInvalid, which is
// a routing decision ("treat as a search phrase"), not an error.
func Classify(input string) core.CanonicalID {
	input = strings.TrimSpace(input)
	if input == "" {
		return core.CanonicalID{Kind: core.KindInvalid}
	}

	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		switch r.kind {
		case core.KindCollection:
			return core.CanonicalID{
				Kind:      core.KindCollection,
				ID:        m[1],
				SourceURL: stripFragment(input),
			}
		default:
			// Short-link, shorts and embed forms are rewritten to the
			// canonical watch form; tracking parameters and fragments are
			// dropped with them.
			return core.CanonicalID{
				Kind:      core.KindSingle,
				ID:        m[1],
				SourceURL: core.WatchURL(m[1]),
			}
		}
	}

	return core.CanonicalID{Kind: core.KindInvalid, SourceURL: input}
}

// IsValid reports whether the input matches any known YouTube link shape.
func IsValid(input string) bool {
	return Classify(input).Kind != core.KindInvalid
}

// ExtractVideoID returns the single-item video ID embedded in a URL.
func ExtractVideoID(input string) (string, bool) {
	link := Classify(input)
	if link.Kind != core.KindSingle {
		return "", false
	}
	return link.ID, true
}

// CleanQuery trims a free-text query, cutting trailing parameter and fragment
// noise that chat clients tend to append. Only applied to text that already
// failed link classification, so cutting at '&' is safe.
func CleanQuery(query string) string {
	if i := strings.IndexAny(query, "&#"); i >= 0 {
		query = query[:i]
	}
	return strings.TrimSpace(query)
}

func stripFragment(input string) string {
	if i := strings.IndexByte(input, '#'); i >= 0 {
		input = input[:i]
	}
	return strings.TrimSpace(input)
}
