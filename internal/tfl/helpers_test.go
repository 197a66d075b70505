package tfl_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"tubestats.onebusaway.org/internal/config"
	"tubestats.onebusaway.org/internal/tfl"
)

// fakeClock advances only when the client sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.sleeps = append(f.sleeps, d)
	return nil
}

func (f *fakeClock) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Env = "testing"
	cfg.API.BaseURL = baseURL
	cfg.API.AppID = "test-id"
	cfg.API.AppKey = "secret-key"
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, cfg *config.Config, httpClient *http.Client) (*tfl.Client, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	client, err := tfl.NewClient(cfg, httpClient, testLogger(), tfl.WithClock(clock.Now, clock.Sleep))
	require.NoError(t, err)
	return client, clock
}

// newFixtureServer serves canned bodies keyed by request path.
func newFixtureServer(t *testing.T, fixtures map[string]string, hits *int) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if hits != nil {
			*hits++
		}
		mu.Unlock()

		body, ok := fixtures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}
