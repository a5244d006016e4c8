package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxFeedBytes = 256 << 20

// FetchFeed downloads the bulk feed: the direct CSV URL first, then the ZIP
// URL. Some feed hosts require Referer/Origin headers, so callers pass the
// site origin through.
func FetchFeed(ctx context.Context, client *http.Client, csvURL, zipURL, origin, userAgent string) ([]byte, string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var lastErr error
	for _, candidate := range []struct {
		url  string
		name string
	}{
		{url: strings.TrimSpace(csvURL), name: "feed.csv"},
		{url: strings.TrimSpace(zipURL), name: "feed.zip"},
	} {
		if candidate.url == "" {
			continue
		}
		payload, err := fetchOne(ctx, client, candidate.url, origin, userAgent)
		if err != nil {
			lastErr = err
			continue
		}
		return payload, candidate.name, nil
	}

	if lastErr != nil {
		return nil, "", lastErr
	}
	return nil, "", fmt.Errorf("no feed url configured")
}

func fetchOne(ctx context.Context, client *http.Client, rawURL, origin, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if origin != "" {
		req.Header.Set("Referer", origin)
		req.Header.Set("Origin", origin)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed download failed: HTTP %d", resp.StatusCode)
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return payload, nil
}
