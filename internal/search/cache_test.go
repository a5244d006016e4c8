package search

import (
	"context"
	"testing"
	"time"

	"karaokesearch/internal/domain"
)

func TestMemCacheSetGet(t *testing.T) {
	cache := NewMemCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "missing"); ok {
		t.Fatal("unexpected hit")
	}

	cache.Set(ctx, "k", domain.SearchResponse{Query: "adele", Total: 3})
	got, ok := cache.Get(ctx, "k")
	if !ok || got.Total != 3 || got.Query != "adele" {
		t.Fatalf("got %+v ok=%v", got, ok)
	}
}

func TestMemCacheExpiry(t *testing.T) {
	cache := NewMemCache(10 * time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	cache.Set(ctx, "k", domain.SearchResponse{Total: 1})
	time.Sleep(30 * time.Millisecond)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("entry should have expired")
	}
}
