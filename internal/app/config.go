package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once at startup from the environment.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	SearchTimeout      time.Duration
	SearchCacheTTL     time.Duration
	SearchCacheDisable bool
	RedisURL           string

	MongoURI string
	MongoDB  string

	MerchantID   string
	FeedCSVURL   string
	FeedZIPURL   string
	ImportSecret string

	KVAPIBase     string
	KVAffiliateID string

	VideoAPIEndpoint string
	VideoAPIKey      string
	VideoChannels    []string
	VideoMaxChannels int

	CatalogSourceEnabled bool
	KVSourceEnabled      bool
	VideoSourceEnabled   bool

	UserAgent string
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SearchTimeout:      time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 10)) * time.Second,
		SearchCacheTTL:     time.Duration(getEnvInt("SEARCH_CACHE_TTL_MINUTES", 15)) * time.Minute,
		SearchCacheDisable: getEnvBool("SEARCH_CACHE_DISABLED", false),
		RedisURL:           getEnv("REDIS_URL", ""),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "karaoke"),

		MerchantID:   getEnv("MERCHANT_ID", "105"),
		FeedCSVURL:   getEnv("FEED_CSV_URL", ""),
		FeedZIPURL:   getEnv("FEED_ZIP_URL", ""),
		ImportSecret: getEnv("IMPORT_SECRET", ""),

		KVAPIBase:     getEnv("KV_API_BASE", ""),
		KVAffiliateID: getEnv("KV_AFFILIATE_ID", ""),

		VideoAPIEndpoint: getEnv("VIDEO_API_ENDPOINT", ""),
		VideoAPIKey:      getEnv("VIDEO_API_KEY", ""),
		VideoChannels:    getEnvList("VIDEO_CHANNELS"),
		VideoMaxChannels: getEnvInt("VIDEO_MAX_CHANNELS", 3),

		CatalogSourceEnabled: getEnvBool("SOURCE_CATALOG_ENABLED", true),
		KVSourceEnabled:      getEnvBool("SOURCE_KV_ENABLED", true),
		VideoSourceEnabled:   getEnvBool("SOURCE_VIDEO_ENABLED", true),

		UserAgent: getEnv("USER_AGENT", "karaokesearch/1.0"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
