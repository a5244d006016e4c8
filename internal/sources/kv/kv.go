// Package kv queries the Karaoke Version affiliate API. The API takes its
// whole request as one JSON document passed URL-encoded in the query string.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"karaokesearch/internal/domain"
	"karaokesearch/internal/search"
)

const (
	defaultBaseURL = "https://www.karaoke-version.com/api/"
	resultLimit    = 100
	maxBody        = 4 << 20
)

type Options struct {
	// BaseURL overrides the production API endpoint, mainly for tests.
	BaseURL     string
	AffiliateID string
	HTTPClient  *http.Client
	UserAgent   string
	Logger      *slog.Logger
}

type Client struct {
	baseURL     string
	affiliateID string
	http        *http.Client
	userAgent   string
	log         *slog.Logger
}

func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = strings.TrimRight(defaultBaseURL, "/")
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     base,
		affiliateID: opts.AffiliateID,
		http:        client,
		userAgent:   opts.UserAgent,
		log:         logger,
	}
}

func (c *Client) Name() string      { return domain.SourceKaraokeVersion }
func (c *Client) Kind() search.Kind { return search.KindRemote }

type apiPayload struct {
	AffiliateID string        `json:"affiliateId"`
	Function    string        `json:"function"`
	Parameters  apiParameters `json:"parameters"`
}

type apiParameters struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type apiResponse struct {
	Items []apiItem `json:"items"`
}

type apiItem struct {
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	ImageURL string `json:"imageUrl"`
}

func (c *Client) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Track, error) {
	payload, err := json.Marshal(apiPayload{
		AffiliateID: c.affiliateID,
		Function:    "search",
		Parameters:  apiParameters{Query: req.Query, Limit: resultLimit},
	})
	if err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/search/?query=" + url.QueryEscape(string(payload))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("search api returned error status",
			slog.String("source", domain.SourceKaraokeVersion),
			slog.Int("status", resp.StatusCode),
			slog.String("query", req.Query))
		return nil, &search.StatusError{Status: resp.StatusCode, URL: c.baseURL}
	}

	var decoded apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&decoded); err != nil {
		c.log.Warn("search api response unreadable",
			slog.String("source", domain.SourceKaraokeVersion),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("decode response: %w", err)
	}

	tracks := make([]domain.Track, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		artist := strings.TrimSpace(item.Artist)
		title := strings.TrimSpace(item.Title)
		if artist == "" || title == "" {
			continue
		}
		track := domain.Track{
			Source:   domain.SourceKaraokeVersion,
			Artist:   artist,
			Title:    title,
			ImageURL: strings.TrimSpace(item.ImageURL),
		}
		if link := fixupLink(item.URL); link != "" {
			track.PurchaseURL = link
		} else {
			track.DisplayURL = c.redirectLink(artist, title)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// fixupLink repairs the mp3-backingtrack paths the API still hands out for
// items that moved to the karaoke section.
func fixupLink(raw string) string {
	raw = strings.TrimSpace(raw)
	return strings.Replace(raw, "/mp3-backingtrack/", "/karaoke/", 1)
}

// redirectLink builds the affiliate redirect used when the API returned no
// product link. The redirect resolves artist and song server-side and credits
// the referral.
func (c *Client) redirectLink(artist, title string) string {
	params := url.Values{}
	if c.affiliateID != "" {
		params.Set("aff", c.affiliateID)
	}
	params.Set("action", "redirect")
	params.Set("part", "karaoke")
	params.Set("artist", artist)
	params.Set("song", title)
	return "https://www.karaoke-version.com/afflink.html?" + params.Encode()
}
