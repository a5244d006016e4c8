package domain

import "time"

// Source labels a track's origin feed or API. Labels are part of the stored
// data and of the dedupe key, so they stay stable across imports.
const (
	SourcePartyTyme      = "Party Tyme"
	SourceKaraokeVersion = "Karaoke Version"
	SourceYouTube        = "YouTube"
)

// Track is a single purchasable or viewable karaoke item from one source.
type Track struct {
	Source     string    `json:"source"`
	Artist     string    `json:"artist"`
	Title      string    `json:"title"`
	Identifier string    `json:"identifier,omitempty"` // per-source product code, e.g. PY22138
	Brand      string    `json:"brand,omitempty"`
	// PurchaseURL is a vendor-provided direct link and wins over DisplayURL.
	// DisplayURL is a synthesized fallback (search-results page, video page).
	PurchaseURL string    `json:"purchaseUrl,omitempty"`
	DisplayURL  string    `json:"displayUrl,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// URL returns the best outbound link for a track.
func (t Track) URL() string {
	if t.PurchaseURL != "" {
		return t.PurchaseURL
	}
	return t.DisplayURL
}

type SortBy string

const (
	SortByArtist SortBy = "artist"
	SortByTitle  SortBy = "title"
	SortByBrand  SortBy = "brand"
)

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func NormalizeSortBy(raw string) SortBy {
	switch SortBy(raw) {
	case SortByTitle:
		return SortByTitle
	case SortByBrand:
		return SortByBrand
	default:
		return SortByArtist
	}
}

func NormalizeSortDir(raw string) SortDir {
	switch SortDir(raw) {
	case SortDesc:
		return SortDesc
	default:
		return SortAsc
	}
}

type SearchRequest struct {
	Query    string
	SortBy   SortBy
	SortDir  SortDir
	Page     int
	PageSize int
	NoCache  bool
}

// SourceStatus reports one adapter's outcome within an aggregated search.
type SourceStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

type SearchResponse struct {
	Query        string            `json:"query"`
	Items        []Track           `json:"items"`
	Total        int               `json:"total"`
	Page         int               `json:"page"`
	PageSize     int               `json:"pageSize"`
	HasMore      bool              `json:"hasMore"`
	SortBy       SortBy            `json:"sortBy"`
	SortDir      SortDir           `json:"sortDir"`
	Sources      []SourceStatus    `json:"sources,omitempty"`
	SourceErrors map[string]string `json:"sourceErrors,omitempty"`
	TimedOut     bool              `json:"timedOut,omitempty"`
	ElapsedMS    int64             `json:"elapsedMs"`
}

// ImportResult summarizes one (possibly windowed) feed import run.
type ImportResult struct {
	Source    string   `json:"source"`
	Added     int      `json:"added"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	TotalRows int      `json:"totalRows"`
	Processed int      `json:"processed"`
	Files     []string `json:"files,omitempty"`
}
