// Package video searches YouTube for karaoke performance videos via the
// Data API v3 search endpoint.
package video

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
	defaultEndpoint = "https://www.googleapis.com/youtube/v3/search"
	perQueryResults = 25
	maxBody         = 4 << 20
	defaultChannels = 3
)

type Options struct {
	// Endpoint overrides the production API URL, mainly for tests.
	Endpoint string
	APIKey   string
	// Channels restricts the search to an allow-list of channel IDs; one
	// request is made per channel, capped by MaxChannels. Empty means a
	// single platform-wide search.
	Channels    []string
	MaxChannels int
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

type Client struct {
	endpoint string
	apiKey   string
	channels []string
	http     *http.Client
	log      *slog.Logger
}

func New(opts Options) *Client {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	maxChannels := opts.MaxChannels
	if maxChannels <= 0 {
		maxChannels = defaultChannels
	}
	channels := opts.Channels
	if len(channels) > maxChannels {
		channels = channels[:maxChannels]
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
		endpoint: endpoint,
		apiKey:   opts.APIKey,
		channels: channels,
		http:     client,
		log:      logger,
	}
}

func (c *Client) Name() string      { return domain.SourceYouTube }
func (c *Client) Kind() search.Kind { return search.KindVideo }

type apiResponse struct {
	Items []apiItem `json:"items"`
}

type apiItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		ChannelID    string `json:"channelId"`
	} `json:"snippet"`
}

func (c *Client) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Track, error) {
	term := strings.TrimSpace(req.Query)
	if !strings.Contains(strings.ToLower(term), "karaoke") {
		term += " karaoke"
	}

	channels := c.channels
	if len(channels) == 0 {
		channels = []string{""}
	}

	seen := map[string]struct{}{}
	var tracks []domain.Track
	for _, channel := range channels {
		items, err := c.query(ctx, term, channel)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			id := item.ID.VideoID
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			tracks = append(tracks, itemToTrack(item))
		}
	}
	return tracks, nil
}

func (c *Client) query(ctx context.Context, term, channelID string) ([]apiItem, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", term)
	params.Set("maxResults", fmt.Sprintf("%d", perQueryResults))
	params.Set("key", c.apiKey)
	if channelID != "" {
		params.Set("channelId", channelID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("video api returned error status",
			slog.String("source", domain.SourceYouTube),
			slog.Int("status", resp.StatusCode),
			slog.String("channel", channelID))
		return nil, &search.StatusError{Status: resp.StatusCode, URL: c.endpoint}
	}

	var decoded apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&decoded); err != nil {
		c.log.Warn("video api response unreadable",
			slog.String("source", domain.SourceYouTube),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded.Items, nil
}

func itemToTrack(item apiItem) domain.Track {
	artist, title := splitVideoTitle(item.Snippet.Title)
	if artist == "" {
		artist = strings.TrimSpace(item.Snippet.ChannelTitle)
	}
	id := item.ID.VideoID
	return domain.Track{
		Source:     domain.SourceYouTube,
		Artist:     artist,
		Title:      title,
		Identifier: id,
		DisplayURL: "https://youtu.be/" + id,
		ImageURL:   "https://i.ytimg.com/vi/" + id + "/mqdefault.jpg",
	}
}

// splitVideoTitle pulls an artist out of titles shaped like
// "Artist - Song (Karaoke Version)". Titles without a separator keep the
// whole string as the song title.
func splitVideoTitle(full string) (artist, title string) {
	full = strings.TrimSpace(full)
	for _, sep := range []string{" - ", " – ", " — ", " | "} {
		if left, right, found := strings.Cut(full, sep); found {
			left = strings.TrimSpace(left)
			right = strings.TrimSpace(right)
			if left != "" && right != "" {
				return left, right
			}
		}
	}
	return "", full
}
