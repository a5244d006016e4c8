package search

import (
	"context"

	"karaokesearch/internal/domain"
)

// Source is a single searchable backend: the local catalog, a store API,
// a video platform. Implementations must be safe for concurrent use.
type Source interface {
	// Name returns the canonical source label attached to every track.
	Name() string
	// Kind orders sources during dedupe: lower wins on key collisions.
	Kind() Kind
	// Search returns matching tracks for the request. An empty slice and
	// nil error means the source simply had nothing.
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.Track, error)
}

// Kind ranks where a result came from. Catalog rows are authoritative,
// remote store APIs next, video platforms last.
type Kind int

const (
	KindCatalog Kind = iota
	KindRemote
	KindVideo
)
