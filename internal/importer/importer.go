package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"karaokesearch/internal/catalog"
	"karaokesearch/internal/domain"
	"karaokesearch/internal/metrics"
)

// Config carries the per-source knobs for feed normalization. Defaults match
// the Party Tyme song shop, the only bulk feed currently wired.
type Config struct {
	Merchant      string
	DefaultBrand  string
	HDBrand       string
	BrandPrefixes map[string]string
	ItemURLBase   string
	SearchURLBase string
}

func DefaultConfig(merchant string) Config {
	if merchant == "" {
		merchant = "105"
	}
	return Config{
		Merchant:     merchant,
		DefaultBrand: "Party Tyme Karaoke",
		HDBrand:      "Party Tyme HD",
		BrandPrefixes: map[string]string{
			"PY": "Party Tyme Karaoke",
			"PH": "Party Tyme HD",
		},
		ItemURLBase:   "https://www.partytyme.net/songshop/cat/search/item",
		SearchURLBase: "https://www.partytyme.net/songshop/search",
	}
}

// Options controls one import run. Skip/Limit window the extracted row set so
// large feeds can be imported in resumable batches; extraction is idempotent
// for the same feed bytes, so windows compose.
type Options struct {
	Filename string
	Skip     int
	Limit    int
}

type Importer struct {
	store  catalog.Store
	cfg    Config
	logger *slog.Logger
}

func New(store catalog.Store, cfg Config, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, cfg: cfg, logger: logger}
}

// ImportFeed normalizes a bulk feed payload (CSV text, or a ZIP holding CSV
// or XML) into catalog upserts. Feed-level failures abort the call; rows
// missing artist or title are skipped and counted.
func (imp *Importer) ImportFeed(ctx context.Context, source string, payload []byte, opts Options) (domain.ImportResult, error) {
	startedAt := time.Now()

	extracted, err := extractRows(payload, opts.Filename)
	if err != nil {
		metrics.ImportRunsTotal.WithLabelValues(source, "error").Inc()
		return domain.ImportResult{}, fmt.Errorf("extract feed rows: %w", err)
	}

	for shape, count := range extracted.shapes {
		imp.logger.Debug("feed row shape",
			slog.String("source", source),
			slog.String("shape", shape),
			slog.Int("rows", count),
		)
	}

	window := windowRows(extracted.rows, opts.Skip, opts.Limit)
	result := domain.ImportResult{
		Source:    source,
		TotalRows: len(extracted.rows),
		Processed: len(window),
		Files:     extracted.files,
	}

	for _, raw := range window {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		track, ok := imp.normalizeRow(source, raw)
		if !ok {
			result.Skipped++
			continue
		}
		outcome, err := imp.store.Upsert(ctx, track)
		if err != nil {
			if errors.Is(err, catalog.ErrInvalidTrack) {
				result.Skipped++
				continue
			}
			metrics.ImportRunsTotal.WithLabelValues(source, "error").Inc()
			return result, fmt.Errorf("upsert %q / %q: %w", track.Artist, track.Title, err)
		}
		switch outcome {
		case catalog.OutcomeAdded:
			result.Added++
		case catalog.OutcomeUpdated:
			result.Updated++
		}
	}

	metrics.ImportRunsTotal.WithLabelValues(source, "ok").Inc()
	metrics.ImportRowsTotal.WithLabelValues(source, "added").Add(float64(result.Added))
	metrics.ImportRowsTotal.WithLabelValues(source, "updated").Add(float64(result.Updated))
	metrics.ImportRowsTotal.WithLabelValues(source, "skipped").Add(float64(result.Skipped))

	imp.logger.Info("feed import finished",
		slog.String("source", source),
		slog.Int("totalRows", result.TotalRows),
		slog.Int("processed", result.Processed),
		slog.Int("added", result.Added),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)
	return result, nil
}

// normalizeRow turns a raw feed row into a Track, or reports it unusable.
func (imp *Importer) normalizeRow(source string, raw rawRow) (domain.Track, bool) {
	artist := collapseSpace(raw.pick(artistAliases))
	title := collapseSpace(raw.pick(titleAliases))
	if artist == "" || title == "" {
		return domain.Track{}, false
	}

	identifier := extractIdentifier(raw)
	brand := imp.cfg.deriveBrand(raw, identifier, title)

	// Link priority: explicit link from the row, then the item-detail URL
	// derived from the identifier. Both are authoritative. The synthesized
	// search-results link is display-only.
	var purchaseURL string
	if link := raw.pick(linkAliases); link != "" {
		purchaseURL = withMerchant(link, imp.cfg.Merchant)
	} else if identifier != "" {
		purchaseURL = imp.cfg.itemURL(identifier)
	}

	return domain.Track{
		Source:      source,
		Artist:      artist,
		Title:       title,
		Identifier:  identifier,
		Brand:       brand,
		PurchaseURL: purchaseURL,
		DisplayURL:  imp.cfg.searchURL(artist, title),
	}, true
}

func windowRows(rows []rawRow, skip, limit int) []rawRow {
	if skip < 0 {
		skip = 0
	}
	if skip > len(rows) {
		skip = len(rows)
	}
	rows = rows[skip:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
