package importer

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"karaokesearch/internal/catalog"
	"karaokesearch/internal/domain"
)

func newTestImporter(t *testing.T) (*Importer, *catalog.MemStore) {
	t.Helper()
	store := catalog.NewMemStore()
	return New(store, DefaultConfig("105"), nil), store
}

func TestImportFeedCSV(t *testing.T) {
	imp, store := newTestImporter(t)
	feed := strings.Join([]string{
		"Artist,Title,Code",
		"Adele,Hello,PY22138",
		"Queen,Bohemian Rhapsody,PH10455",
		",Missing Artist,PY999",
	}, "\n")

	result, err := imp.ImportFeed(context.Background(), domain.SourcePartyTyme, []byte(feed), Options{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Added != 2 || result.Skipped != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.TotalRows != 3 || result.Processed != 3 {
		t.Fatalf("row accounting = %+v", result)
	}

	track, err := store.FindByIdentity(context.Background(), catalog.IdentityKey{
		Source: domain.SourcePartyTyme, Identifier: "PY22138",
	})
	if err != nil {
		t.Fatalf("find imported track: %v", err)
	}
	if track.Brand != "Party Tyme Karaoke" {
		t.Fatalf("brand = %q", track.Brand)
	}
	if !strings.Contains(track.PurchaseURL, "/item/PY22138") {
		t.Fatalf("purchase url = %q", track.PurchaseURL)
	}
	if !strings.Contains(track.PurchaseURL, "merchant=105") {
		t.Fatalf("purchase url missing merchant: %q", track.PurchaseURL)
	}
	if track.DisplayURL == "" || !strings.Contains(track.DisplayURL, "merchant=105") {
		t.Fatalf("display url = %q", track.DisplayURL)
	}
}

func TestImportFeedReimportUpdatesInsteadOfDuplicating(t *testing.T) {
	imp, store := newTestImporter(t)
	feed := []byte("Artist,Title,Code\nAdele,Hello,PY22138\n")

	if _, err := imp.ImportFeed(context.Background(), domain.SourcePartyTyme, feed, Options{}); err != nil {
		t.Fatalf("first import: %v", err)
	}
	result, err := imp.ImportFeed(context.Background(), domain.SourcePartyTyme, feed, Options{})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Added != 0 || result.Updated != 1 {
		t.Fatalf("result = %+v", result)
	}
	n, _ := store.Count(context.Background(), domain.SourcePartyTyme)
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestImportFeedWindowing(t *testing.T) {
	imp, store := newTestImporter(t)
	feed := strings.Join([]string{
		"Artist,Title",
		"a,s1", "b,s2", "c,s3", "d,s4", "e,s5",
	}, "\n")

	first, err := imp.ImportFeed(context.Background(), domain.SourcePartyTyme, []byte(feed), Options{Limit: 2})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if first.Processed != 2 || first.Added != 2 || first.TotalRows != 5 {
		t.Fatalf("first window = %+v", first)
	}

	second, err := imp.ImportFeed(context.Background(), domain.SourcePartyTyme, []byte(feed), Options{Skip: 2, Limit: 2})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if second.Processed != 2 || second.Added != 2 {
		t.Fatalf("second window = %+v", second)
	}

	tail, err := imp.ImportFeed(context.Background(), domain.SourcePartyTyme, []byte(feed), Options{Skip: 4})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if tail.Processed != 1 || tail.Added != 1 {
		t.Fatalf("tail window = %+v", tail)
	}

	n, _ := store.Count(context.Background(), domain.SourcePartyTyme)
	if n != 5 {
		t.Fatalf("count = %d, want 5", n)
	}
}

func TestImportFeedEmptyPayload(t *testing.T) {
	imp, _ := newTestImporter(t)
	if _, err := imp.ImportFeed(context.Background(), domain.SourcePartyTyme, []byte("  \n "), Options{}); err == nil {
		t.Fatal("expected error for empty feed")
	}
}

func TestImportFeedExplicitLinkWins(t *testing.T) {
	imp, store := newTestImporter(t)
	feed := []byte("Artist,Title,Code,URL\nAdele,Hello,PY22138,https://shop.example/item/42\n")

	if _, err := imp.ImportFeed(context.Background(), domain.SourcePartyTyme, feed, Options{}); err != nil {
		t.Fatalf("import: %v", err)
	}
	track, err := store.FindByIdentity(context.Background(), catalog.IdentityKey{
		Source: domain.SourcePartyTyme, Identifier: "PY22138",
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !strings.HasPrefix(track.PurchaseURL, "https://shop.example/item/42") {
		t.Fatalf("explicit link lost: %q", track.PurchaseURL)
	}
	if !strings.Contains(track.PurchaseURL, "merchant=105") {
		t.Fatalf("merchant missing: %q", track.PurchaseURL)
	}
}

func TestExtractIdentifier(t *testing.T) {
	cases := []struct {
		row  rawRow
		want string
	}{
		{rawRow{"code": "PY22138"}, "PY22138"},
		{rawRow{"title": "Hello (py104)"}, "PY104"},
		{rawRow{"notes": "catalog no PH10455 reissue"}, "PH10455"},
		{rawRow{"code": "12345"}, ""},
		{rawRow{"code": "PY12"}, ""},
		{rawRow{"code": "PY123456789"}, ""},
		{rawRow{"title": "Hello"}, ""},
	}
	for _, tc := range cases {
		if got := extractIdentifier(tc.row); got != tc.want {
			t.Errorf("extractIdentifier(%v) = %q, want %q", tc.row, got, tc.want)
		}
	}
}

func TestExtractIdentifierStableWithMultipleCodes(t *testing.T) {
	// Two codes in non-preferred fields: the same row must resolve to the
	// same identifier on every import, or re-imports duplicate the track.
	row := rawRow{"notes": "reissue of PH10455", "comment": "see also PY22138"}
	first := extractIdentifier(row)
	if first != "PY22138" {
		t.Fatalf("identifier = %q, want the code from the first field in key order", first)
	}
	for i := 0; i < 200; i++ {
		if got := extractIdentifier(row); got != first {
			t.Fatalf("identifier flipped from %q to %q on call %d", first, got, i)
		}
	}
}

func TestDeriveBrand(t *testing.T) {
	cfg := DefaultConfig("105")

	if got := cfg.deriveBrand(rawRow{}, "PY22138", "Hello"); got != "Party Tyme Karaoke" {
		t.Fatalf("PY prefix = %q", got)
	}
	if got := cfg.deriveBrand(rawRow{}, "PH10455", "Hello"); got != "Party Tyme HD" {
		t.Fatalf("PH prefix = %q", got)
	}
	if got := cfg.deriveBrand(rawRow{"format": "HD Video"}, "", "Hello"); got != "Party Tyme HD" {
		t.Fatalf("hd field = %q", got)
	}
	if got := cfg.deriveBrand(rawRow{}, "", "Hello (HD)"); got != "Party Tyme HD" {
		t.Fatalf("hd title = %q", got)
	}
	if got := cfg.deriveBrand(rawRow{}, "", "Happy Birthday"); got != "Party Tyme Karaoke" {
		t.Fatalf("hd substring inside a word = %q", got)
	}
	if got := cfg.deriveBrand(rawRow{}, "", "Hello"); got != "Party Tyme Karaoke" {
		t.Fatalf("default = %q", got)
	}
}

func TestWithMerchant(t *testing.T) {
	got := withMerchant("https://www.partytyme.net/songshop/item/PY1", "105")
	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Query().Get("merchant") != "105" {
		t.Fatalf("merchant not injected: %q", got)
	}

	// Existing merchant parameter stays untouched.
	again := withMerchant(got, "999")
	parsed, _ = url.Parse(again)
	if parsed.Query().Get("merchant") != "105" {
		t.Fatalf("merchant overwritten: %q", again)
	}

	if withMerchant("", "105") != "" {
		t.Fatal("empty url must stay empty")
	}
}
