package search

import (
	"strings"

	"karaokesearch/internal/catalog"
)

var pairSeparators = []string{" - ", " – ", " — ", " | "}

// ParseQuery splits free text into a catalog query. A single separator
// ("Artist - Title", en/em dash or pipe with surrounding spaces) yields an
// artist/title pair; otherwise the query is tokenized on whitespace.
func ParseQuery(raw string) catalog.Query {
	raw = strings.TrimSpace(raw)
	q := catalog.Query{Raw: raw}
	if raw == "" {
		return q
	}

	for _, sep := range pairSeparators {
		if strings.Count(raw, sep) == 1 {
			left, right, _ := strings.Cut(raw, sep)
			left = strings.TrimSpace(left)
			right = strings.TrimSpace(right)
			if left != "" && right != "" {
				q.ArtistPart = left
				q.TitlePart = right
				return q
			}
		}
	}

	q.Tokens = strings.Fields(raw)
	return q
}
