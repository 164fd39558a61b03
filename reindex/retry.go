package reindex

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff executes fn, retrying on failure with exponential backoff.
// The delay doubles after each failed attempt, starting from initialDelay.
// Returns the last error if all attempts fail, or ctx.Err() if the context
// is cancelled while waiting to retry.
func RetryWithBackoff(ctx context.Context, maxAttempts int, initialDelay time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	delay := initialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}
