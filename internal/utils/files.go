package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"tubestats.onebusaway.org/internal/report"
)

// StdoutPath is the output path that selects standard output.
const StdoutPath = "-"

// LatestFile returns the most recently modified regular file in dir whose
// name ends with suffix.
func LatestFile(dir, suffix string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var lastModTime time.Time
	var lastModFile string

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), suffix) {
			continue
		}
		fileInfo, err := file.Info()
		if err != nil {
			return "", err
		}
		if fileInfo.ModTime().After(lastModTime) {
			lastModTime = fileInfo.ModTime()
			lastModFile = file.Name()
		}
	}

	if lastModFile == "" {
		return "", fmt.Errorf("no %s files found in %s", suffix, dir)
	}

	return filepath.Join(dir, lastModFile), nil
}

// CreateOutputDirectory ensures the directory exists, creating it if necessary.
func CreateOutputDirectory(dir string, logger *slog.Logger) error {
	stat, err := os.Stat(dir)

	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
					Level: sentry.LevelError,
					ExtraContext: map[string]interface{}{
						"output_dir": dir,
					},
				})
				return err
			}
			logger.Debug("Created output directory", "dir", dir)
			return nil
		}
		return err

	}
	if !stat.IsDir() {
		err := fmt.Errorf("%s is not a directory", dir)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Level: sentry.LevelError,
			ExtraContext: map[string]interface{}{
				"output_dir": dir,
			},
		})
		return err
	}
	return nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// CreateOutputFile opens path for writing, creating its parent directory.
// StdoutPath returns standard output; closing it is a no-op.
func CreateOutputFile(path string, logger *slog.Logger) (io.WriteCloser, error) {
	if path == StdoutPath {
		return nopCloser{os.Stdout}, nil
	}
	if err := CreateOutputDirectory(filepath.Dir(path), logger); err != nil {
		return nil, err
	}
	// #nosec G304 -- path comes from the operator's command line.
	return os.Create(path)
}
