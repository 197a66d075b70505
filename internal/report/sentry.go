package report

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// SetupSentry initializes the Sentry client from SENTRY_DSN. An empty DSN
// leaves Sentry disabled, so local runs report nothing.
func SetupSentry(env string) error {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("SENTRY_DSN"),
		Environment:      env,
		EnableTracing:    true,
		Debug:            env == "development",
		TracesSampleRate: 1.0,
	}); err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	return nil
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
