package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	remoteGtfs "github.com/jamespfennell/gtfs"
	"tubestats.onebusaway.org/internal/config"
	"tubestats.onebusaway.org/internal/models"
	"tubestats.onebusaway.org/internal/report"
	"tubestats.onebusaway.org/internal/utils"
)

// isRemote reports whether source names an HTTP(S) URL rather than a local path.
func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// readGTFSBundle returns the raw zip bytes of a GTFS static bundle.
//
// source may be:
//   - an http(s) URL, downloaded with config.DoWithBackoff,
//   - a directory, in which case the most recently modified .zip inside it is read,
//   - a path to a zip file.
func readGTFSBundle(ctx context.Context, source string, client *http.Client, maxRetries int, logger *slog.Logger) ([]byte, error) {
	if isRemote(source) {
		return downloadGTFSBundle(ctx, source, client, maxRetries)
	}

	path := source
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("failed to stat GTFS bundle %s: %w", source, err)
	}
	if info.IsDir() {
		path, err = utils.LatestFile(source, ".zip")
		if err != nil {
			return nil, fmt.Errorf("failed to find a GTFS bundle in %s: %w", source, err)
		}
		logger.Info("Using most recent GTFS bundle", "dir", source, "file", path)
	}

	// #nosec G304 -- path comes from the operator's configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GTFS bundle %s: %w", path, err)
	}
	return data, nil
}

// downloadGTFSBundle fetches a GTFS static bundle over HTTP, retrying
// transport failures and 5xx responses with backoff.
func downloadGTFSBundle(ctx context.Context, url string, client *http.Client, maxRetries int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := config.DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		err = fmt.Errorf("failed to make GET request to %s: %w", url, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags: utils.MakeMap("source", "gtfs"),
			ExtraContext: map[string]interface{}{
				"url": url,
			},
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected response status %d when downloading GTFS bundle from %s", resp.StatusCode, url)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags: utils.MakeMap("source", "gtfs"),
			ExtraContext: map[string]interface{}{
				"url":    url,
				"status": resp.Status,
			},
			Level: sentry.LevelError,
		})
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read GTFS bundle response body from %s: %w", url, err)
		report.ReportError(err)
		return nil, err
	}
	return data, nil
}

// parseGTFSBundle parses raw zip bytes and keeps the parts used to derive
// stop points.
func parseGTFSBundle(data []byte, source string) (*models.StaticData, error) {
	staticBundle, err := remoteGtfs.ParseStatic(data, remoteGtfs.ParseStaticOptions{})
	if err != nil {
		err = fmt.Errorf("failed to parse GTFS static data from %s: %w", source, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags: utils.MakeMap("source", "gtfs"),
			ExtraContext: map[string]interface{}{
				"gtfs_path": source,
			},
		})
		return nil, err
	}
	return models.NewStaticData(staticBundle), nil
}

// getEarliestAndLatestServiceDates returns the earliest and latest service end dates
// from the GTFS static data's calendar entries.
//
// The GTFS library does not parse `feed_info.txt`, so the feed's validity
// window is inferred from the `calendar.txt` service periods instead.
//
// Returns an error if no services are found in the bundle.
func getEarliestAndLatestServiceDates(staticData *models.StaticData) (earliestEndDate, latestEndDate time.Time, err error) {
	if staticData == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("static data is nil")
	}
	if len(staticData.Services) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("no services found in GTFS bundle")
	}
	earliestEndDate = staticData.Services[0].EndDate
	latestEndDate = staticData.Services[0].EndDate
	for _, service := range staticData.Services {
		if service.EndDate.Before(earliestEndDate) {
			earliestEndDate = service.EndDate
		}
		if service.EndDate.After(latestEndDate) {
			latestEndDate = service.EndDate
		}
	}
	return earliestEndDate, latestEndDate, nil
}
