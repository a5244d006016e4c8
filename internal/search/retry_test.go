package search

import (
	"context"
	"errors"
	"testing"
)

func TestRetryOnceRetriesOn429(t *testing.T) {
	calls := 0
	out, err := retryOnce(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &StatusError{Status: 429, URL: "http://example.test"}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" || calls != 2 {
		t.Fatalf("out=%q calls=%d", out, calls)
	}
}

func TestRetryOnceRetriesOn500OnlyOnce(t *testing.T) {
	calls := 0
	_, err := retryOnce(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, &StatusError{Status: 503, URL: "http://example.test"}
	})
	if err == nil {
		t.Fatal("expected error after second failure")
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want exactly 2", calls)
	}
}

func TestRetryOnceDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	_, err := retryOnce(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, &StatusError{Status: 404, URL: "http://example.test"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryOnceDoesNotRetryPlainErrors(t *testing.T) {
	calls := 0
	_, err := retryOnce(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("parse failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryOnceHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := retryOnce(ctx, func(context.Context) (int, error) {
		calls++
		return 0, &StatusError{Status: 500, URL: "http://example.test"}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
