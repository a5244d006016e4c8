package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// StatusError carries the HTTP status an upstream returned so the retry
// layer can tell throttling and server faults apart from hard failures.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d for %s", e.Status, e.URL)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == 429 || se.Status >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

const retryDelay = 250 * time.Millisecond

// retryOnce runs fn and retries it exactly one time after a short fixed delay
// when the failure looks transient (429, 5xx, network timeout). Client errors
// such as 404 fail immediately.
func retryOnce[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	out, err := fn(ctx)
	if err == nil || !isRetryable(err) {
		return out, err
	}
	select {
	case <-ctx.Done():
		return out, ctx.Err()
	case <-time.After(retryDelay):
	}
	return fn(ctx)
}
