// Package http exposes the search, import and admin endpoints.
package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"karaokesearch/internal/catalog"
	"karaokesearch/internal/domain"
	"karaokesearch/internal/importer"
	"karaokesearch/internal/search"
)

const maxUploadBytes = 256 << 20

var errNoFeed = errors.New("request has no body and no feed URL is configured")

type Options struct {
	Searcher *search.Service
	Importer *importer.Importer
	Store    catalog.Store
	// FetchFeed pulls the remote catalog feed for body-less import requests.
	// Nil disables URL-based imports.
	FetchFeed func(r *http.Request) ([]byte, string, error)
	// ImportSecret guards the admin endpoints. Empty disables them entirely.
	ImportSecret string
	// Sources lists the catalog source labels shown by the status endpoint.
	Sources []string
	// RateLimit caps requests per second across all endpoints. Zero disables
	// the limiter.
	RateLimit float64
	Logger    *slog.Logger
}

type Server struct {
	searcher     *search.Service
	importer     *importer.Importer
	store        catalog.Store
	fetchFeed    func(r *http.Request) ([]byte, string, error)
	importSecret string
	sources      []string
	log          *slog.Logger
	handler      http.Handler
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		searcher:     opts.Searcher,
		importer:     opts.Importer,
		store:        opts.Store,
		fetchFeed:    opts.FetchFeed,
		importSecret: opts.ImportSecret,
		sources:      opts.Sources,
		log:          logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("POST /admin/import", s.requireSecret(s.handleImport))
	mux.HandleFunc("POST /admin/purge", s.requireSecret(s.handlePurge))
	mux.HandleFunc("GET /admin/status", s.requireSecret(s.handleStatus))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	if opts.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), int(opts.RateLimit)*2)
		handler = withRateLimit(limiter, handler)
	}
	handler = withLogging(logger, handler)
	handler = withRecovery(logger, handler)
	s.handler = handler
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	req := domain.SearchRequest{
		Query:    params.Get("q"),
		SortBy:   domain.NormalizeSortBy(params.Get("sortBy")),
		SortDir:  domain.NormalizeSortDir(params.Get("sortDir")),
		Page:     intParam(params.Get("page"), 1),
		PageSize: intParam(params.Get("pageSize"), 0),
		NoCache:  boolParam(params.Get("nocache")),
	}

	resp, err := s.searcher.SearchAll(r.Context(), req)
	if err != nil {
		s.log.Error("search failed", slog.String("query", req.Query), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	opts := importer.Options{
		Skip:  intParam(r.URL.Query().Get("skip"), 0),
		Limit: intParam(r.URL.Query().Get("limit"), 0),
	}
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		source = domain.SourcePartyTyme
	}

	payload, filename, err := s.importPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.Filename = filename

	result, err := s.importer.ImportFeed(r.Context(), source, payload, opts)
	if err != nil {
		s.log.Error("import failed", slog.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// importPayload prefers an uploaded body; without one the configured feed
// URL is fetched.
func (s *Server) importPayload(r *http.Request) ([]byte, string, error) {
	if r.ContentLength != 0 && r.Body != nil {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil {
			return nil, "", err
		}
		if len(payload) > 0 {
			return payload, uploadFilename(r), nil
		}
	}
	if s.fetchFeed == nil {
		return nil, "", errNoFeed
	}
	return s.fetchFeed(r)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		writeError(w, http.StatusBadRequest, "source parameter is required")
		return
	}
	deleted, err := s.store.DeleteBySource(r.Context(), source)
	if err != nil {
		s.log.Error("purge failed", slog.String("source", source), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "purge failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": source, "deleted": deleted})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type sourceCount struct {
		Source string `json:"source"`
		Count  int64  `json:"count"`
	}
	counts := make([]sourceCount, 0, len(s.sources))
	for _, source := range s.sources {
		n, err := s.store.Count(r.Context(), source)
		if err != nil {
			s.log.Error("count failed", slog.String("source", source), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "status unavailable")
			return
		}
		counts = append(counts, sourceCount{Source: source, Count: n})
	}
	total, err := s.store.Count(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": counts, "total": total})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireSecret checks X-Import-Secret (or the secret query parameter) in
// constant time. With no secret configured the admin surface stays closed.
func (s *Server) requireSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.importSecret == "" {
			writeError(w, http.StatusServiceUnavailable, "admin endpoints are disabled")
			return
		}
		provided := r.Header.Get("X-Import-Secret")
		if provided == "" {
			provided = r.URL.Query().Get("secret")
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.importSecret)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid secret")
			return
		}
		next(w, r)
	}
}

func uploadFilename(r *http.Request) string {
	if name := strings.TrimSpace(r.URL.Query().Get("filename")); name != "" {
		return name
	}
	switch {
	case strings.Contains(r.Header.Get("Content-Type"), "zip"):
		return "upload.zip"
	case strings.Contains(r.Header.Get("Content-Type"), "xml"):
		return "upload.xml"
	default:
		return "upload.csv"
	}
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(raw); err == nil {
		return parsed
	}
	return fallback
}

func boolParam(raw string) bool {
	parsed, err := strconv.ParseBool(raw)
	return err == nil && parsed
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
