package llm

import (
	"context"
	"errors"
	"log"
	"time"
)

// withRetry runs fn and retries transient provider failures up to
// maxRetries times, doubling the wait each attempt.
func withRetry(ctx context.Context, maxRetries int, backoff time.Duration, fn func() error) error {
	wait := backoff
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		var pe *ProviderError
		if attempt >= maxRetries || !errors.As(err, &pe) || !pe.Retryable() || ctx.Err() != nil {
			return err
		}
		log.Printf("llm: attempt %d failed, retrying in %s: %v", attempt+1, wait, truncate(err.Error(), 200))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
		wait *= 2
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
