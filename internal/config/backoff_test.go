package config

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func shortenBackoff(t *testing.T) {
	t.Helper()
	prev := baseBackoff
	baseBackoff = time.Millisecond
	t.Cleanup(func() { baseBackoff = prev })
}

func TestDoWithBackoff(t *testing.T) {
	shortenBackoff(t)

	tests := []struct {
		name          string
		maxRetries    int
		ctxTimeout    time.Duration
		handler       func(calls int) (*http.Response, error)
		expectErr     string
		expectCalls   int
		expectSuccess bool
	}{
		{
			name:       "success on first try",
			maxRetries: 3,
			handler: func(int) (*http.Response, error) {
				return &http.Response{StatusCode: 200, Body: http.NoBody}, nil
			},
			expectCalls:   1,
			expectSuccess: true,
		},
		{
			name:       "success after transient error",
			maxRetries: 2,
			handler: func(calls int) (*http.Response, error) {
				if calls == 1 {
					return nil, errors.New("connection reset")
				}
				return &http.Response{StatusCode: 200, Body: http.NoBody}, nil
			},
			expectCalls:   2,
			expectSuccess: true,
		},
		{
			name:       "server errors are retried",
			maxRetries: 1,
			handler: func(int) (*http.Response, error) {
				return &http.Response{StatusCode: 503, Body: http.NoBody}, nil
			},
			expectErr:   "max retries exceeded",
			expectCalls: 2,
		},
		{
			name:       "client errors are returned",
			maxRetries: 3,
			handler: func(int) (*http.Response, error) {
				return &http.Response{StatusCode: 404, Body: http.NoBody}, nil
			},
			expectCalls:   1,
			expectSuccess: true,
		},
		{
			name:       "max retries exceeded",
			maxRetries: 2,
			handler: func(int) (*http.Response, error) {
				return nil, errors.New("mock error")
			},
			expectErr:   "max retries exceeded",
			expectCalls: 3,
		},
		{
			name:       "context cancelled before success",
			maxRetries: 1000,
			ctxTimeout: 50 * time.Millisecond,
			handler: func(int) (*http.Response, error) {
				return nil, errors.New("fail")
			},
			expectErr:   "context deadline exceeded",
			expectCalls: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRoundTripper{}
			mock.handler = func(req *http.Request) (*http.Response, error) {
				return tt.handler(mock.calls)
			}
			client := &http.Client{Transport: mock}
			req, _ := http.NewRequest("GET", "http://example.com", nil)

			ctx := context.Background()
			if tt.ctxTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.ctxTimeout)
				defer cancel()
			}

			resp, err := DoWithBackoff(ctx, client, req, tt.maxRetries)

			if tt.expectErr == "" && err != nil {
				t.Fatalf("expected success, got error: %v", err)
			}
			if tt.expectErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tt.expectErr, err)
				}
			}
			if tt.expectSuccess && resp == nil {
				t.Fatalf("expected response, got nil")
			}

			if tt.expectCalls >= 0 && mock.calls != tt.expectCalls {
				t.Errorf("expected %d calls, got %d", tt.expectCalls, mock.calls)
			}
		})
	}
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 32 * time.Second},
		{7, 60 * time.Second},
		{50, 60 * time.Second},
	}
	for _, tt := range tests {
		got := ExponentialBackoff(tt.attempt, time.Second, 60*time.Second)
		if got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Sleep did not return promptly on a cancelled context")
	}
}
