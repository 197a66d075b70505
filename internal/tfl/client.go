package tfl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"tubestats.onebusaway.org/internal/config"
	"tubestats.onebusaway.org/internal/geo"
)

// Client calls the TfL Unified API. Every call goes through the rate limiter
// and both retry layers; see Get.
type Client struct {
	baseURL *url.URL
	appID   string
	appKey  string
	mode    string
	centre  geo.Point

	rateLimit config.RateLimitConfig
	retry     config.RetryConfig
	window    *slidingWindow
	waitLog   rate.Sometimes

	http   *http.Client
	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	lineIDs []string
}

// Option customises a Client.
type Option func(*Client)

// WithClock replaces the wall clock and the sleep used between retries.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.now = now
		c.sleep = sleep
	}
}

// NewClient builds a Client from the API, rate-limit, retry and centre
// settings of cfg.
func NewClient(cfg *config.Config, httpClient *http.Client, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", cfg.API.BaseURL, err)
	}

	c := &Client{
		baseURL:   base,
		appID:     cfg.API.AppID,
		appKey:    cfg.API.AppKey,
		mode:      cfg.API.Mode,
		centre:    geo.Point{Lat: cfg.Centre.Lat, Lon: cfg.Centre.Lon},
		rateLimit: cfg.RateLimit,
		retry:     cfg.Retry,
		window:    newSlidingWindow(cfg.RateLimit.Calls, cfg.RateLimit.Period),
		waitLog:   rate.Sometimes{First: 1, Interval: 10 * time.Second},
		http:      httpClient,
		logger:    logger,
		now:       time.Now,
		sleep:     config.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// endpoint returns the request URL for the path segments, with credentials
// attached, and a credential-free form for logs, errors and metric labels.
func (c *Client) endpoint(segments ...string) (full string, safe string) {
	u := c.baseURL.JoinPath(segments...)
	safe = u.Scheme + "://" + u.Host + u.Path

	q := u.Query()
	if c.appID != "" {
		q.Set("app_id", c.appID)
	}
	if c.appKey != "" {
		q.Set("app_key", c.appKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), safe
}

// endpointLabel is the low-cardinality metric label for a request path.
func endpointLabel(segments []string) string {
	return "/" + strings.Join(segments, "/")
}
