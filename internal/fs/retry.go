package fs

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"
)

const (
	maxRetries = 5
	retryBase  = 100 * time.Millisecond
)

// retry runs fn with exponential backoff while it keeps failing with transient errors.
// It is used by copy and rename so a briefly busy file does not fail a whole run.
func retry(ctx context.Context, clk clock.Clock, opName string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !isTransient(err) {
			return err
		}

		if attempt == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(retryBase * (1 << (attempt - 1))):
		}
	}

	return fmt.Errorf("%s failed after %d retries: %w", opName, maxRetries, lastErr)
}
