package config

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

const (
	BASE_BACKOFF   = 1 * time.Second
	MAX_BACKOFF    = 60 * time.Second
	BACKOFF_FACTOR = 2.0
	JITTER_FACTOR  = 0.5
)

// baseBackoff is the first delay used by DoWithBackoff; tests shorten it.
var baseBackoff = BASE_BACKOFF

// ExponentialBackoff returns the delay before retry number attempt (1-based):
// min * 2^(attempt-1), clamped to [min, max].
func ExponentialBackoff(attempt int, min, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := min
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * BACKOFF_FACTOR)
		if delay >= max {
			return max
		}
	}
	if delay < min {
		return min
	}
	if delay > max {
		return max
	}
	return delay
}

func withJitter(backoff time.Duration) time.Duration {
	jitter := time.Duration(rand.Float64() * float64(backoff) * JITTER_FACTOR)
	backoff += jitter
	if backoff > MAX_BACKOFF {
		backoff = MAX_BACKOFF
	}
	return backoff
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DoWithBackoff sends req with client, retrying transport errors and 5xx
// responses up to maxRetries times with jittered exponential backoff.
// Any other response is returned to the caller as is.
func DoWithBackoff(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	req = req.WithContext(ctx)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := withJitter(ExponentialBackoff(attempt, baseBackoff, MAX_BACKOFF))
			if err := Sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
