package catalog

import (
	"testing"
	"time"

	"karaokesearch/internal/domain"
)

func TestNormalizeCollapsesWhitespaceAndUppercasesIdentifier(t *testing.T) {
	got := Normalize(domain.Track{
		Source:     "  Party  Tyme ",
		Artist:     " The  Beatles ",
		Title:      "Hey   Jude",
		Identifier: " py22138 ",
	})
	if got.Source != "Party Tyme" || got.Artist != "The Beatles" || got.Title != "Hey Jude" {
		t.Fatalf("normalized = %+v", got)
	}
	if got.Identifier != "PY22138" {
		t.Fatalf("identifier = %q, want PY22138", got.Identifier)
	}
}

func TestValidateRejectsMissingArtistOrTitle(t *testing.T) {
	if err := Validate(domain.Track{Artist: "a", Title: "t"}); err != nil {
		t.Fatalf("valid track rejected: %v", err)
	}
	if err := Validate(domain.Track{Title: "t"}); err != ErrInvalidTrack {
		t.Fatalf("want ErrInvalidTrack, got %v", err)
	}
	if err := Validate(domain.Track{Artist: "a"}); err != ErrInvalidTrack {
		t.Fatalf("want ErrInvalidTrack, got %v", err)
	}
}

func TestMergeForUpdateKeepsCreatedAt(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	existing := domain.Track{Artist: "a", Title: "t", CreatedAt: created}
	incoming := domain.Track{Artist: "a", Title: "t", CreatedAt: time.Now()}

	merged := MergeForUpdate(existing, incoming)
	if !merged.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt mutated: %v", merged.CreatedAt)
	}
}

func TestMergeForUpdateNeverClearsIdentifier(t *testing.T) {
	existing := domain.Track{Artist: "a", Title: "t", Identifier: "PY100"}
	merged := MergeForUpdate(existing, domain.Track{Artist: "a", Title: "t"})
	if merged.Identifier != "PY100" {
		t.Fatalf("identifier cleared: %q", merged.Identifier)
	}

	merged = MergeForUpdate(existing, domain.Track{Artist: "a", Title: "t", Identifier: "PY200"})
	if merged.Identifier != "PY200" {
		t.Fatalf("new identifier lost: %q", merged.Identifier)
	}
}

func TestMergeForUpdatePurchaseURLAuthority(t *testing.T) {
	existing := domain.Track{Artist: "a", Title: "t", PurchaseURL: "https://shop.example/old"}

	merged := MergeForUpdate(existing, domain.Track{Artist: "a", Title: "t", DisplayURL: "https://search.example"})
	if merged.PurchaseURL != "https://shop.example/old" {
		t.Fatalf("direct link replaced by nothing: %q", merged.PurchaseURL)
	}

	merged = MergeForUpdate(existing, domain.Track{Artist: "a", Title: "t", PurchaseURL: "https://shop.example/new"})
	if merged.PurchaseURL != "https://shop.example/new" {
		t.Fatalf("new direct link lost: %q", merged.PurchaseURL)
	}
}

func TestMergeForUpdateRefreshesDescriptiveFields(t *testing.T) {
	existing := domain.Track{Artist: "a", Title: "t", Brand: "Old Brand", ImageURL: "https://img.example/old"}
	merged := MergeForUpdate(existing, domain.Track{Artist: "a", Title: "t", Brand: "New Brand"})
	if merged.Brand != "New Brand" {
		t.Fatalf("brand not refreshed: %q", merged.Brand)
	}
	if merged.ImageURL != "https://img.example/old" {
		t.Fatalf("image dropped on empty incoming: %q", merged.ImageURL)
	}
}
