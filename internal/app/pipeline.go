package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"tubestats.onebusaway.org/internal/dataset"
	"tubestats.onebusaway.org/internal/metrics"
	"tubestats.onebusaway.org/internal/plot"
	"tubestats.onebusaway.org/internal/report"
	"tubestats.onebusaway.org/internal/utils"
)

// Run executes the pipeline once: resolve the lines, fetch their stop points
// one line at a time, then write the dataset, the plot and the metrics.
// The first line that fails aborts the run.
func (app *Application) Run(ctx context.Context) error {
	start := time.Now()

	lineIDs, err := app.resolveLines(ctx)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("stage", "lines"),
			Level: sentry.LevelError,
		})
		return err
	}
	metrics.TubeLines.Set(float64(len(lineIDs)))
	app.Logger.Info("Resolved lines", "count", len(lineIDs), "lines", strings.Join(lineIDs, ","))

	results := make([]dataset.LineResult, 0, len(lineIDs))
	for _, id := range lineIDs {
		points, err := app.Source.LineStopPoints(ctx, id)
		if err != nil {
			app.Logger.Error("Failed to fetch stop points", "line", id, "error", err)
			report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
				Tags:  utils.MakeMap("line_id", id),
				Level: sentry.LevelError,
			})
			return fmt.Errorf("line %s: %w", id, err)
		}

		metrics.StopPointsPerLine.WithLabelValues(id).Set(float64(len(points)))
		for _, p := range points {
			metrics.StopDistance.Observe(p.Distance)
		}
		app.Logger.Info("Fetched stop points", "line", id, "count", len(points))

		results = append(results, dataset.LineResult{LineID: id, Points: points})
	}

	table := dataset.Build(results)

	if err := app.writeTable(table); err != nil {
		return err
	}

	switch path := app.Config.Output.PlotPath; {
	case path == "":
	case table.Len() == 0:
		app.Logger.Warn("Skipping plot, no rows", "path", path)
	default:
		if err := utils.CreateOutputDirectory(filepath.Dir(path), app.Logger); err != nil {
			return fmt.Errorf("failed to prepare plot directory: %w", err)
		}
		if err := plot.DistanceByConnections(table, path); err != nil {
			report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
				Tags:         utils.MakeMap("stage", "plot"),
				ExtraContext: map[string]interface{}{"plot_path": path},
				Level:        sentry.LevelWarning,
			})
			return err
		}
		app.Logger.Info("Wrote plot", "path", path)
	}

	app.logSummary(table.Summary())

	metrics.PipelineDuration.Set(time.Since(start).Seconds())
	metrics.LastSuccess.SetToCurrentTime()

	return app.writeMetrics()
}

// resolveLines returns the source's line ids, narrowed to Source.Lines when
// set. Source order is kept; requesting a line the source does not know is
// an error.
func (app *Application) resolveLines(ctx context.Context) ([]string, error) {
	all, err := app.Source.LineIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lines: %w", err)
	}

	wanted := app.Config.Source.Lines
	if len(wanted) == 0 {
		return all, nil
	}

	known := make(map[string]struct{}, len(all))
	for _, id := range all {
		known[id] = struct{}{}
	}
	want := make(map[string]struct{}, len(wanted))
	var unknown []string
	for _, id := range wanted {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
		want[id] = struct{}{}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown lines: %s", strings.Join(unknown, ", "))
	}

	selected := make([]string, 0, len(wanted))
	for _, id := range all {
		if _, ok := want[id]; ok {
			selected = append(selected, id)
		}
	}
	return selected, nil
}

func (app *Application) writeTable(table *dataset.Table) error {
	out := app.Config.Output
	w, err := utils.CreateOutputFile(out.Path, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to open output %s: %w", out.Path, err)
	}

	if err := table.Write(w, out.Format); err != nil {
		w.Close()
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close output %s: %w", out.Path, err)
	}

	app.Logger.Info("Wrote dataset", "path", out.Path, "format", out.Format, "rows", table.Len())
	return nil
}

func (app *Application) writeMetrics() error {
	path := app.Config.Output.MetricsPath
	if path == "" {
		return nil
	}

	if path == utils.StdoutPath {
		w, err := utils.CreateOutputFile(path, app.Logger)
		if err != nil {
			return err
		}
		defer w.Close()
		return metrics.Write(w, app.Gatherer)
	}

	if err := utils.CreateOutputDirectory(filepath.Dir(path), app.Logger); err != nil {
		return fmt.Errorf("failed to prepare metrics directory: %w", err)
	}
	if err := metrics.WriteTextfile(path, app.Gatherer); err != nil {
		return err
	}
	app.Logger.Info("Wrote metrics", "path", path)
	return nil
}
