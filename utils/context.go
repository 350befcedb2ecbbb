package utils

import (
	"context"
	"time"
)

// Backoff waits base * 2^attempt, or until ctx is done, in which case ctx.Err() is returned.
func Backoff(ctx context.Context, attempt int, base time.Duration) error {
	timer := time.NewTimer(base << attempt)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
