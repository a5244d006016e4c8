// Package catalogsource exposes the locally imported catalog as a search
// backend alongside the remote store and video adapters.
package catalogsource

import (
	"context"

	"karaokesearch/internal/catalog"
	"karaokesearch/internal/domain"
	"karaokesearch/internal/search"
)

// maxResults caps how many catalog rows a single query may contribute to a
// merged response.
const maxResults = 500

type Adapter struct {
	store catalog.Store
}

func New(store catalog.Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) Name() string      { return "Catalog" }
func (a *Adapter) Kind() search.Kind { return search.KindCatalog }

func (a *Adapter) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Track, error) {
	query := search.ParseQuery(req.Query)
	if query.IsZero() {
		return nil, nil
	}
	return a.store.Search(ctx, query, maxResults, 0)
}
