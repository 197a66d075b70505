package tfl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"tubestats.onebusaway.org/internal/config"
	"tubestats.onebusaway.org/internal/metrics"
	"tubestats.onebusaway.org/internal/report"
	"tubestats.onebusaway.org/internal/utils"
)

// maxErrorBody bounds how much of an error response is kept in a StatusError.
const maxErrorBody = 4 << 10

// Get performs a GET against the API path made of segments and returns the
// raw response body.
//
// Two retry layers wrap every call. The outer one retries transport failures
// (network errors and 5xx) up to Retry.Attempts times, waiting
// MinWait*2^(n-1) clamped to MaxWait. The inner one handles rate limiting:
// when the local window refuses a call or the server answers 429 it waits
// RateLimit.Wait and tries again. Once RateLimit.MaxDelay has passed the
// inner layer gives up with ErrRateLimited, which the outer layer retries
// like any transport failure.
func (c *Client) Get(ctx context.Context, segments ...string) ([]byte, error) {
	full, safe := c.endpoint(segments...)
	label := endpointLabel(segments)

	var lastErr error
	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		if attempt > 1 {
			wait := config.ExponentialBackoff(attempt-1, c.retry.MinWait, c.retry.MaxWait)
			metrics.APIRetries.WithLabelValues("transport").Inc()
			c.logger.Warn("Retrying TfL request",
				"endpoint", label, "attempt", attempt, "wait", wait, "error", lastErr)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		body, err := c.getRateLimited(ctx, full, safe, label)
		if err == nil {
			return body, nil
		}

		var te *transportError
		if !errors.As(err, &te) {
			return nil, err
		}
		lastErr = te.err
	}

	err := fmt.Errorf("GET %s failed after %d attempts: %w", safe, c.retry.Attempts, lastErr)
	report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
		Tags:         utils.MakeMap("endpoint", label),
		ExtraContext: map[string]interface{}{"url": safe},
		Level:        sentry.LevelError,
	})
	return nil, err
}

func (c *Client) getRateLimited(ctx context.Context, full, safe, label string) ([]byte, error) {
	start := c.now()
	for {
		body, err := c.getOnce(ctx, full, safe, label)

		var signal *rateLimitSignal
		if !errors.As(err, &signal) {
			return body, err
		}

		if waited := c.now().Sub(start); waited >= c.rateLimit.MaxDelay {
			c.logger.Warn("Giving up on rate-limited TfL request", "endpoint", label, "waited", waited)
			return nil, &transportError{err: fmt.Errorf("GET %s: %w", safe, ErrRateLimited)}
		}

		metrics.APIRetries.WithLabelValues("rate_limit").Inc()
		c.waitLog.Do(func() {
			c.logger.Info("Rate limited, waiting", "endpoint", label, "source", signal.source, "wait", c.rateLimit.Wait)
		})
		if err := c.sleep(ctx, c.rateLimit.Wait); err != nil {
			return nil, err
		}
	}
}

func (c *Client) getOnce(ctx context.Context, full, safe, label string) ([]byte, error) {
	if !c.window.allow(c.now()) {
		return nil, &rateLimitSignal{source: "local"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", safe, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequests.WithLabelValues(label, "error").Inc()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transportError{err: fmt.Errorf("GET %s: %w", safe, redactURLError(err, safe))}
	}
	defer resp.Body.Close()

	metrics.APIRequests.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &rateLimitSignal{source: "server"}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &transportError{err: newStatusError(resp, safe)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, newStatusError(resp, safe)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transportError{err: fmt.Errorf("failed to read response from %s: %w", safe, err)}
	}
	return body, nil
}

func newStatusError(resp *http.Response, safe string) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		StatusCode: resp.StatusCode,
		URL:        safe,
		Body:       string(body),
	}
}
