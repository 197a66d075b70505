package tfl

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned once rate-limited retries have been exhausted on
// every transport attempt.
var ErrRateLimited = errors.New("tfl: rate limit exceeded")

// StatusError is a non-2xx response from the API. 429 responses are handled
// as rate-limit signals and 5xx as transport failures before one surfaces.
type StatusError struct {
	StatusCode int
	URL        string // without query parameters, so credentials never leak
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tfl: GET %s returned status %d", e.URL, e.StatusCode)
}

// transportError marks failures that the transport backoff retries:
// network errors, truncated bodies, 5xx responses and exhausted rate-limit
// waits.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// rateLimitSignal means the call was refused, locally by the sliding window or
// remotely with a 429, and should be retried after the rate-limit wait.
type rateLimitSignal struct {
	source string
}

func (e *rateLimitSignal) Error() string {
	return fmt.Sprintf("rate limited (%s)", e.source)
}
