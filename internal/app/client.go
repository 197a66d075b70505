package app

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"tubestats.onebusaway.org/internal/metrics"
)

// latencyTrackingRoundTripper wraps another RoundTripper and records the
// duration of every outgoing request in metrics.OutgoingLatency, labelled by
// URL (without query, so API keys stay out of the labels), method and status.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	safeURL := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	metrics.OutgoingLatency.WithLabelValues(
		safeURL,
		req.Method,
		status,
	).Observe(duration)

	return resp, err
}

// NewPooledClient returns the HTTP client shared by the TfL client, the GTFS
// downloader and the remote config loader.
//
// A run issues one request per line against a single host, so a small
// keep-alive pool avoids a TLS handshake per line:
//
//   - MaxIdleConnsPerHost: 4, IdleConnTimeout: 90s
//   - Dial timeout 5s with 30s TCP keep-alive, TLS handshake timeout 5s
//   - timeout bounds the whole request, including reading the body
//
// The transport is wrapped with latencyTrackingRoundTripper.
func NewPooledClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{
		Transport: &latencyTrackingRoundTripper{next: transport},
		Timeout:   timeout,
	}
}
