package search

import "testing"

func TestFold(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Beyoncé", "beyonce"},
		{"  MÖTLEY  CRÜE ", "motley crue"},
		{"plain", "plain"},
		{"", ""},
		{"  Ça  Va  ", "ca va"},
	}
	for _, tc := range cases {
		if got := fold(tc.in); got != tc.want {
			t.Errorf("fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDedupeKeyIgnoresCaseAndAccents(t *testing.T) {
	a := dedupeKey("Party Tyme", "Beyoncé", "Halo")
	b := dedupeKey("party tyme", "beyonce", "HALO")
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
}

func TestDedupeKeySeparatesSources(t *testing.T) {
	a := dedupeKey("Party Tyme", "Adele", "Hello")
	b := dedupeKey("Karaoke Version", "Adele", "Hello")
	if a == b {
		t.Fatal("tracks from different sources must not collide")
	}
}
