package mongostore

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"karaokesearch/internal/catalog"
	"karaokesearch/internal/domain"
)

func TestDocRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	track := domain.Track{
		Source:      "Party Tyme",
		Artist:      "Adele",
		Title:       "Hello",
		Identifier:  "PY22138",
		Brand:       "Party Tyme Karaoke",
		PurchaseURL: "https://www.partytyme.net/songshop/cat/search/item/PY22138?merchant=105",
		DisplayURL:  "https://www.partytyme.net/songshop/search?q=Adele+Hello&merchant=105",
		ImageURL:    "https://img.example/py22138.jpg",
		CreatedAt:   created,
	}

	got := fromDoc(toDoc(track))
	if got != track {
		t.Fatalf("round trip changed track:\n got %+v\nwant %+v", got, track)
	}
}

func TestBuildFilterPair(t *testing.T) {
	filter := buildFilter(catalog.Query{ArtistPart: "adele", TitlePart: "hello"})
	and, ok := filter["$and"].([]bson.M)
	if !ok || len(and) != 2 {
		t.Fatalf("filter = %+v", filter)
	}
	artist := and[0]["artist"].(bson.M)
	if artist["$regex"] != "adele" || artist["$options"] != "i" {
		t.Fatalf("artist clause = %+v", artist)
	}
}

func TestBuildFilterTokens(t *testing.T) {
	filter := buildFilter(catalog.Query{Tokens: []string{"bohemian", "rhapsody"}})
	and, ok := filter["$and"].([]bson.M)
	if !ok || len(and) != 2 {
		t.Fatalf("filter = %+v", filter)
	}
	for _, clause := range and {
		or, ok := clause["$or"].([]bson.M)
		if !ok || len(or) != 2 {
			t.Fatalf("token clause = %+v", clause)
		}
	}
}

func TestBuildFilterRaw(t *testing.T) {
	filter := buildFilter(catalog.Query{Raw: "hello"})
	or, ok := filter["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Fatalf("filter = %+v", filter)
	}
}

func TestBuildFilterEscapesRegexMeta(t *testing.T) {
	filter := buildFilter(catalog.Query{Raw: "AC/DC (live)"})
	or := filter["$or"].([]bson.M)
	clause := or[0]["artist"].(bson.M)
	if clause["$regex"] != `AC/DC \(live\)` {
		t.Fatalf("regex = %q", clause["$regex"])
	}
}

func TestContainsAndExactInsensitive(t *testing.T) {
	contains := containsInsensitive(" hello ")
	if contains["$regex"] != "hello" {
		t.Fatalf("contains = %+v", contains)
	}
	exact := exactInsensitive("Hello")
	if exact["$regex"] != "^Hello$" {
		t.Fatalf("exact = %+v", exact)
	}
}

func TestNewIDShapeAndUniqueness(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := newID()
		if len(id) != 24 {
			t.Fatalf("id length = %d (%q)", len(id), id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
