package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"karaokesearch/internal/domain"
)

var (
	ErrNotFound     = errors.New("track not found")
	ErrInvalidTrack = errors.New("track requires artist and title")
)

// Outcome tells a caller whether an upsert created or refreshed a row.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeUpdated Outcome = "updated"
)

// IdentityKey addresses a track inside one source. Identifier wins when
// present; otherwise the (artist, title) pair is the best-effort key.
type IdentityKey struct {
	Source     string
	Identifier string
	Artist     string
	Title      string
}

// Query is the only search predicate the store supports. Exactly one of the
// three forms is used, checked in order: the artist/title pair, the token
// list, the raw substring. All matching is case-insensitive substring.
type Query struct {
	// ArtistPart/TitlePart: artist contains ArtistPart AND title contains TitlePart.
	ArtistPart string
	TitlePart  string
	// Tokens: every token must appear in artist OR title.
	Tokens []string
	// Raw: plain substring against artist OR title.
	Raw string
}

func (q Query) IsZero() bool {
	return q.ArtistPart == "" && q.TitlePart == "" && len(q.Tokens) == 0 && strings.TrimSpace(q.Raw) == ""
}

// Store is the record-store contract the importer and the search path consume.
// Any backing engine satisfying it is acceptable.
type Store interface {
	FindByIdentity(ctx context.Context, key IdentityKey) (domain.Track, error)
	Upsert(ctx context.Context, track domain.Track) (Outcome, error)
	Search(ctx context.Context, query Query, limit, offset int) ([]domain.Track, error)
	Count(ctx context.Context, source string) (int64, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
}

// Normalize trims and collapses internal whitespace on the identity fields.
func Normalize(track domain.Track) domain.Track {
	track.Source = collapseSpace(track.Source)
	track.Artist = collapseSpace(track.Artist)
	track.Title = collapseSpace(track.Title)
	track.Identifier = strings.ToUpper(strings.TrimSpace(track.Identifier))
	track.Brand = collapseSpace(track.Brand)
	track.PurchaseURL = strings.TrimSpace(track.PurchaseURL)
	track.DisplayURL = strings.TrimSpace(track.DisplayURL)
	track.ImageURL = strings.TrimSpace(track.ImageURL)
	return track
}

// Validate rejects tracks that must never be persisted.
func Validate(track domain.Track) error {
	if track.Artist == "" || track.Title == "" {
		return ErrInvalidTrack
	}
	return nil
}

// MergeForUpdate applies the update policy when an incoming row matches an
// existing one:
//   - CreatedAt is set once and never mutated.
//   - An identifier may be attached to an identifier-less row, never cleared.
//   - An authoritative PurchaseURL is never replaced by an empty one; a new
//     direct link may replace an old direct link.
//   - DisplayURL and the descriptive fields refresh freely.
func MergeForUpdate(existing, incoming domain.Track) domain.Track {
	merged := incoming
	merged.CreatedAt = existing.CreatedAt
	if merged.Identifier == "" {
		merged.Identifier = existing.Identifier
	}
	if merged.PurchaseURL == "" {
		merged.PurchaseURL = existing.PurchaseURL
	}
	if merged.Brand == "" {
		merged.Brand = existing.Brand
	}
	if merged.ImageURL == "" {
		merged.ImageURL = existing.ImageURL
	}
	if merged.DisplayURL == "" {
		merged.DisplayURL = existing.DisplayURL
	}
	return merged
}

func collapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
