package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"karaokesearch/internal/domain"
	"karaokesearch/internal/metrics"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Options tunes the aggregation service.
type Options struct {
	// MaxConcurrent bounds how many sources are queried at once. Zero means
	// no practical bound.
	MaxConcurrent int64
	// Timeout caps a whole SearchAll call. Zero disables the internal deadline.
	Timeout time.Duration
	Cache   Cache
	Logger  *slog.Logger
}

// Service fans a query out to every registered source and merges the answers.
type Service struct {
	sources []Source
	sem     *semaphore.Weighted
	timeout time.Duration
	cache   Cache
	log     *slog.Logger
}

func NewService(sources []Source, opts Options) *Service {
	limit := opts.MaxConcurrent
	if limit <= 0 {
		limit = int64(len(sources)) + 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sources: sources,
		sem:     semaphore.NewWeighted(limit),
		timeout: opts.Timeout,
		cache:   opts.Cache,
		log:     logger,
	}
}

// Sources lists the registered source names in registration order.
func (s *Service) Sources() []string {
	names := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		names = append(names, src.Name())
	}
	return names
}

type sourceResult struct {
	source Source
	tracks []domain.Track
	err    error
}

// SearchAll queries every source concurrently and returns one merged,
// deduplicated, sorted and paginated response. A source failing or timing
// out never fails the call; its error lands in SourceErrors instead.
func (s *Service) SearchAll(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error) {
	started := time.Now()
	req = normalizeRequest(req)

	resp := domain.SearchResponse{
		Query:    req.Query,
		Page:     req.Page,
		PageSize: req.PageSize,
		SortBy:   req.SortBy,
		SortDir:  req.SortDir,
		Items:    []domain.Track{},
	}
	if req.Query == "" {
		resp.ElapsedMS = time.Since(started).Milliseconds()
		return resp, nil
	}

	if s.cache != nil && !req.NoCache {
		if cached, ok := s.cache.Get(ctx, cacheKey(req)); ok {
			metrics.CacheHitsTotal.Inc()
			cached.ElapsedMS = time.Since(started).Milliseconds()
			return cached, nil
		}
		metrics.CacheMissesTotal.Inc()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results := make([]sourceResult, len(s.sources))
	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = s.querySource(ctx, src, req)
		}(i, src)
	}
	wg.Wait()

	for _, r := range results {
		status := domain.SourceStatus{
			Name:  r.source.Name(),
			OK:    r.err == nil,
			Count: len(r.tracks),
		}
		if r.err != nil {
			status.Error = r.err.Error()
			if resp.SourceErrors == nil {
				resp.SourceErrors = map[string]string{}
			}
			resp.SourceErrors[r.source.Name()] = r.err.Error()
			if errors.Is(r.err, context.DeadlineExceeded) {
				resp.TimedOut = true
			}
		}
		resp.Sources = append(resp.Sources, status)
	}

	merged := merge(results)
	sortTracks(merged, req.SortBy, req.SortDir)

	resp.Total = len(merged)
	resp.Items = paginate(merged, req.Page, req.PageSize)
	resp.HasMore = req.Page*req.PageSize < resp.Total
	resp.ElapsedMS = time.Since(started).Milliseconds()

	if s.cache != nil && !req.NoCache && !resp.TimedOut {
		s.cache.Set(ctx, cacheKey(req), resp)
	}
	return resp, nil
}

func (s *Service) querySource(ctx context.Context, src Source, req domain.SearchRequest) sourceResult {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return sourceResult{source: src, err: err}
	}
	defer s.sem.Release(1)

	started := time.Now()
	tracks, err := retryOnce(ctx, func(ctx context.Context) ([]domain.Track, error) {
		return src.Search(ctx, req)
	})
	elapsed := time.Since(started)

	status := "ok"
	if err != nil {
		status = "error"
		s.log.Warn("source query failed",
			slog.String("source", src.Name()),
			slog.String("query", req.Query),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
	} else {
		s.log.Debug("source query done",
			slog.String("source", src.Name()),
			slog.Int("results", len(tracks)),
			slog.Duration("elapsed", elapsed))
	}
	metrics.SourceRequestsTotal.WithLabelValues(src.Name(), status).Inc()
	metrics.SourceRequestDuration.WithLabelValues(src.Name()).Observe(elapsed.Seconds())

	return sourceResult{source: src, tracks: tracks, err: err}
}

// merge joins per-source results into one slice, dropping duplicates.
// Sources are visited in kind order so catalog rows beat remote rows and
// remote rows beat video rows on key collisions.
func merge(results []sourceResult) []domain.Track {
	ordered := make([]sourceResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].source.Kind() < ordered[j].source.Kind()
	})

	seen := map[string]struct{}{}
	var out []domain.Track
	for _, r := range ordered {
		for _, t := range r.tracks {
			key := dedupeKey(t.Source, t.Artist, t.Title)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func sortTracks(tracks []domain.Track, by domain.SortBy, dir domain.SortDir) {
	key := func(t domain.Track) string {
		switch by {
		case domain.SortByTitle:
			return fold(t.Title)
		case domain.SortByBrand:
			return fold(t.Brand)
		default:
			return fold(t.Artist)
		}
	}
	desc := dir == domain.SortDesc
	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := key(tracks[i]), key(tracks[j])
		if a != b {
			if desc {
				return a > b
			}
			return a < b
		}
		// Ties break on the natural order regardless of direction.
		ai, bi := tracks[i], tracks[j]
		if fa, fb := fold(ai.Artist), fold(bi.Artist); fa != fb {
			return fa < fb
		}
		if fa, fb := fold(ai.Title), fold(bi.Title); fa != fb {
			return fa < fb
		}
		return ai.Source < bi.Source
	})
}

func paginate(tracks []domain.Track, page, pageSize int) []domain.Track {
	offset := (page - 1) * pageSize
	if offset >= len(tracks) {
		return []domain.Track{}
	}
	end := offset + pageSize
	if end > len(tracks) {
		end = len(tracks)
	}
	return tracks[offset:end]
}

func normalizeRequest(req domain.SearchRequest) domain.SearchRequest {
	req.Query = trimQuery(req.Query)
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}
	req.SortBy = domain.NormalizeSortBy(string(req.SortBy))
	req.SortDir = domain.NormalizeSortDir(string(req.SortDir))
	return req
}

func trimQuery(q string) string {
	return ParseQuery(q).Raw
}

func cacheKey(req domain.SearchRequest) string {
	return fold(req.Query) + "|" + string(req.SortBy) + "|" + string(req.SortDir) +
		"|" + strconv.Itoa(req.Page) + "|" + strconv.Itoa(req.PageSize)
}
