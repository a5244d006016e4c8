package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	api "karaokesearch/internal/api/http"
	"karaokesearch/internal/app"
	"karaokesearch/internal/catalog"
	"karaokesearch/internal/catalog/mongostore"
	"karaokesearch/internal/domain"
	"karaokesearch/internal/importer"
	"karaokesearch/internal/metrics"
	"karaokesearch/internal/search"
	"karaokesearch/internal/sources/catalogsource"
	"karaokesearch/internal/sources/kv"
	"karaokesearch/internal/sources/video"
	"karaokesearch/internal/telemetry"
)

const serviceName = "karaoke-search"

func main() {
	_ = godotenv.Load()
	cfg := app.LoadConfig()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		logger.Error("tracing init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	store := openStore(ctx, cfg, logger)

	httpClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	service := search.NewService(buildSources(cfg, store, httpClient, logger), search.Options{
		MaxConcurrent: 8,
		Timeout:       cfg.SearchTimeout,
		Cache:         openCache(ctx, cfg, logger),
		Logger:        logger,
	})

	imp := importer.New(store, importer.DefaultConfig(cfg.MerchantID), logger)

	server := api.NewServer(api.Options{
		Searcher:     service,
		Importer:     imp,
		Store:        store,
		FetchFeed:    feedFetcher(cfg, httpClient),
		ImportSecret: cfg.ImportSecret,
		Sources:      []string{domain.SourcePartyTyme, domain.SourceKaraokeVersion, domain.SourceYouTube},
		RateLimit:    50,
		Logger:       logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(server, "http.server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func newLogger(cfg app.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// openStore connects to MongoDB when MONGO_URI is set; otherwise the service
// runs on an in-memory store that empties on restart.
func openStore(ctx context.Context, cfg app.Config, logger *slog.Logger) catalog.Store {
	if cfg.MongoURI == "" {
		logger.Warn("MONGO_URI not set, using in-memory catalog store")
		return catalog.NewMemStore()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongostore.Connect(connectCtx, cfg.MongoURI,
		options.Client().SetMonitor(otelmongo.NewMonitor()))
	if err != nil {
		logger.Error("mongodb connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := mongostore.NewStore(client, cfg.MongoDB, "tracks")
	if err := store.EnsureIndexes(connectCtx); err != nil {
		logger.Error("mongodb index setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("connected to mongodb", slog.String("database", cfg.MongoDB))
	return store
}

func openCache(ctx context.Context, cfg app.Config, logger *slog.Logger) search.Cache {
	if cfg.SearchCacheDisable {
		return nil
	}
	if cfg.RedisURL != "" {
		cache, err := search.NewRedisCache(ctx, cfg.RedisURL, cfg.SearchCacheTTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory cache",
				slog.String("error", err.Error()))
		} else {
			logger.Info("using redis search cache")
			return cache
		}
	}
	return search.NewMemCache(cfg.SearchCacheTTL)
}

func buildSources(cfg app.Config, store catalog.Store, client *http.Client, logger *slog.Logger) []search.Source {
	var sources []search.Source
	if cfg.CatalogSourceEnabled {
		sources = append(sources, catalogsource.New(store))
	}
	if cfg.KVSourceEnabled {
		sources = append(sources, kv.New(kv.Options{
			BaseURL:     cfg.KVAPIBase,
			AffiliateID: cfg.KVAffiliateID,
			HTTPClient:  client,
			UserAgent:   cfg.UserAgent,
			Logger:      logger,
		}))
	}
	if cfg.VideoSourceEnabled && cfg.VideoAPIKey != "" {
		sources = append(sources, video.New(video.Options{
			Endpoint:    cfg.VideoAPIEndpoint,
			APIKey:      cfg.VideoAPIKey,
			Channels:    cfg.VideoChannels,
			MaxChannels: cfg.VideoMaxChannels,
			HTTPClient:  client,
			Logger:      logger,
		}))
	}
	return sources
}

func feedFetcher(cfg app.Config, client *http.Client) func(r *http.Request) ([]byte, string, error) {
	if cfg.FeedCSVURL == "" && cfg.FeedZIPURL == "" {
		return nil
	}
	origin := "https://www.partytyme.net"
	return func(r *http.Request) ([]byte, string, error) {
		return importer.FetchFeed(r.Context(), client, cfg.FeedCSVURL, cfg.FeedZIPURL, origin, cfg.UserAgent)
	}
}
