package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"karaokesearch/internal/domain"
)

const redisKeyPrefix = "karaoke:search:"

// RedisCache stores serialized search responses in Redis so cache hits
// survive restarts and are shared between replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisCache connects to redisURL (a redis:// URL) and pings it once.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, ttl: ttl, log: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (domain.SearchResponse, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("redis get failed", slog.String("error", err.Error()))
		}
		return domain.SearchResponse{}, false
	}
	var resp domain.SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.Warn("redis cache entry corrupt", slog.String("key", key), slog.String("error", err.Error()))
		_ = c.client.Del(ctx, redisKeyPrefix+key).Err()
		return domain.SearchResponse{}, false
	}
	return resp, true
}

func (c *RedisCache) Set(ctx context.Context, key string, resp domain.SearchResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("redis set failed", slog.String("error", err.Error()))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
