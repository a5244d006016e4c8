package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"karaokesearch/internal/domain"
)

// MemStore is an in-memory Store. It backs tests and lets the service run
// without a database; the production deployment uses the mongostore package.
type MemStore struct {
	mu     sync.RWMutex
	tracks []domain.Track
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) FindByIdentity(_ context.Context, key IdentityKey) (domain.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.locate(key); idx >= 0 {
		return s.tracks[idx], nil
	}
	return domain.Track{}, ErrNotFound
}

func (s *MemStore) Upsert(_ context.Context, track domain.Track) (Outcome, error) {
	track = Normalize(track)
	if err := Validate(track); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.locate(IdentityKey{
		Source:     track.Source,
		Identifier: track.Identifier,
		Artist:     track.Artist,
		Title:      track.Title,
	})
	if idx >= 0 {
		s.tracks[idx] = MergeForUpdate(s.tracks[idx], track)
		return OutcomeUpdated, nil
	}

	if track.CreatedAt.IsZero() {
		track.CreatedAt = nowUTC()
	}
	s.tracks = append(s.tracks, track)
	return OutcomeAdded, nil
}

// locate resolves identity the same way the mongo store does: the
// (source, identifier) key first, then an identifier-less (source, artist,
// title) row that an identifier-bearing import is allowed to upgrade.
// Callers hold the lock.
func (s *MemStore) locate(key IdentityKey) int {
	if key.Identifier != "" {
		for i, t := range s.tracks {
			if equalFold(t.Source, key.Source) && strings.EqualFold(t.Identifier, key.Identifier) {
				return i
			}
		}
		for i, t := range s.tracks {
			if t.Identifier == "" && equalFold(t.Source, key.Source) &&
				equalFold(t.Artist, key.Artist) && equalFold(t.Title, key.Title) {
				return i
			}
		}
		return -1
	}
	for i, t := range s.tracks {
		if equalFold(t.Source, key.Source) && equalFold(t.Artist, key.Artist) && equalFold(t.Title, key.Title) {
			return i
		}
	}
	return -1
}

func (s *MemStore) Search(_ context.Context, query Query, limit, offset int) ([]domain.Track, error) {
	if query.IsZero() {
		return nil, nil
	}

	s.mu.RLock()
	matched := make([]domain.Track, 0, 32)
	for _, t := range s.tracks {
		if matchesQuery(t, query) {
			matched = append(matched, t)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if c := strings.Compare(strings.ToLower(matched[i].Artist), strings.ToLower(matched[j].Artist)); c != 0 {
			return c < 0
		}
		return strings.ToLower(matched[i].Title) < strings.ToLower(matched[j].Title)
	})

	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemStore) Count(_ context.Context, source string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if source == "" {
		return int64(len(s.tracks)), nil
	}
	var n int64
	for _, t := range s.tracks {
		if equalFold(t.Source, source) {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) DeleteBySource(_ context.Context, source string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tracks[:0]
	var deleted int64
	for _, t := range s.tracks {
		if equalFold(t.Source, source) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	s.tracks = kept
	return deleted, nil
}

func matchesQuery(t domain.Track, query Query) bool {
	artist := strings.ToLower(t.Artist)
	title := strings.ToLower(t.Title)

	if query.ArtistPart != "" || query.TitlePart != "" {
		return strings.Contains(artist, strings.ToLower(query.ArtistPart)) &&
			strings.Contains(title, strings.ToLower(query.TitlePart))
	}
	if len(query.Tokens) > 0 {
		for _, token := range query.Tokens {
			needle := strings.ToLower(token)
			if !strings.Contains(artist, needle) && !strings.Contains(title, needle) {
				return false
			}
		}
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(query.Raw))
	return strings.Contains(artist, needle) || strings.Contains(title, needle)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
