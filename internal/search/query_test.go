package search

import (
	"reflect"
	"testing"
)

func TestParseQueryPair(t *testing.T) {
	q := ParseQuery("Adele - Hello")
	if q.ArtistPart != "Adele" || q.TitlePart != "Hello" {
		t.Fatalf("got artist=%q title=%q", q.ArtistPart, q.TitlePart)
	}
	if len(q.Tokens) != 0 {
		t.Fatalf("pair query must not tokenize, got %v", q.Tokens)
	}
}

func TestParseQueryEnDash(t *testing.T) {
	q := ParseQuery("Queen – Bohemian Rhapsody")
	if q.ArtistPart != "Queen" || q.TitlePart != "Bohemian Rhapsody" {
		t.Fatalf("got artist=%q title=%q", q.ArtistPart, q.TitlePart)
	}
}

func TestParseQueryPipe(t *testing.T) {
	q := ParseQuery("Adele | Hello")
	if q.ArtistPart != "Adele" || q.TitlePart != "Hello" {
		t.Fatalf("got artist=%q title=%q", q.ArtistPart, q.TitlePart)
	}
}

func TestParseQueryMultipleSeparatorsFallsBackToTokens(t *testing.T) {
	q := ParseQuery("a - b - c")
	if q.ArtistPart != "" || q.TitlePart != "" {
		t.Fatalf("ambiguous separators must not split: artist=%q title=%q", q.ArtistPart, q.TitlePart)
	}
	want := []string{"a", "-", "b", "-", "c"}
	if !reflect.DeepEqual(q.Tokens, want) {
		t.Fatalf("tokens = %v, want %v", q.Tokens, want)
	}
}

func TestParseQueryTokens(t *testing.T) {
	q := ParseQuery("  bohemian   rhapsody ")
	want := []string{"bohemian", "rhapsody"}
	if !reflect.DeepEqual(q.Tokens, want) {
		t.Fatalf("tokens = %v, want %v", q.Tokens, want)
	}
	if q.Raw != "bohemian   rhapsody" {
		t.Fatalf("raw = %q", q.Raw)
	}
}

func TestParseQueryHyphenWithoutSpacesIsNotASeparator(t *testing.T) {
	q := ParseQuery("Jay-Z Empire")
	if q.ArtistPart != "" {
		t.Fatalf("in-word hyphen must not split, got artist=%q", q.ArtistPart)
	}
}

func TestParseQueryEmpty(t *testing.T) {
	if q := ParseQuery("   "); !q.IsZero() {
		t.Fatalf("blank query should be zero, got %+v", q)
	}
}
