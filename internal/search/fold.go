package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// fold lowercases a string, strips diacritics and collapses interior whitespace,
// so "Beyoncé " and "beyonce" produce the same key.
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if out, _, err := transform.String(foldTransformer, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// dedupeKey identifies a track across adapters. Source is part of the key:
// the same song offered by two stores is two distinct results.
func dedupeKey(source, artist, title string) string {
	return fold(source) + "|" + fold(artist) + "|" + fold(title)
}
