package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/getsentry/sentry-go"
	"tubestats.onebusaway.org/internal/app"
	"tubestats.onebusaway.org/internal/config"
	"tubestats.onebusaway.org/internal/report"
)

const version = "1.0.0"

// flagValues holds the command-line overrides. Only flags the user actually
// set are applied over the file and environment configuration.
type flagValues struct {
	env         string
	source      string
	gtfsPath    string
	lines       string
	out         string
	format      string
	plotPath    string
	metricsPath string
}

func main() {
	var fv flagValues

	flag.StringVar(&fv.env, "env", "development", "Environment (development|staging|production)")
	flag.StringVar(&fv.source, "source", "tfl", "Stop point source (tfl|gtfs)")
	flag.StringVar(&fv.gtfsPath, "gtfs", "", "GTFS static bundle: zip file, directory of zips, or URL (implies --source=gtfs)")
	flag.StringVar(&fv.lines, "lines", "", "Comma-separated line ids to include (default: all tube lines)")
	flag.StringVar(&fv.out, "out", "-", "Dataset output path, or - for stdout")
	flag.StringVar(&fv.format, "format", "csv", "Dataset format (csv|json)")
	flag.StringVar(&fv.plotPath, "plot", "", "Box plot output path (.png, .svg, .pdf); empty to skip")
	flag.StringVar(&fv.metricsPath, "metrics-file", "", "Write Prometheus metrics to this textfile, or - for stdout")

	var (
		configFile = flag.String("config-file", "", "Path to a local YAML configuration file")
		configURL  = flag.String("config-url", "", "URL to a remote YAML configuration file")
	)

	flag.Parse()

	if err := config.ValidateConfigFlags(configFile, configURL); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, logger, fv, *configFile, *configURL))
}

func run(ctx context.Context, logger *slog.Logger, fv flagValues, configFile, configURL string) int {
	client := app.NewPooledClient(config.Default().API.Timeout)

	configService := config.NewConfigService(logger, client)
	cfg, err := configService.Load(ctx, config.Source{
		File:     configFile,
		URL:      configURL,
		AuthUser: os.Getenv("CONFIG_AUTH_USER"),
		AuthPass: os.Getenv("CONFIG_AUTH_PASS"),
	})
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return 1
	}

	applyFlags(cfg, fv)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		return 1
	}

	if err := report.SetupSentry(cfg.Env); err != nil {
		logger.Warn("Sentry disabled", "error", err)
	}
	defer report.FlushSentry()
	report.ConfigureScope(cfg.Env, version)

	if cfg.API.Timeout != client.Timeout {
		client = app.NewPooledClient(cfg.API.Timeout)
	}

	application, err := app.New(cfg, logger, client, version)
	if err != nil {
		report.ReportError(err)
		logger.Error("Failed to initialise", "error", err)
		return 1
	}

	logger.Info("Starting run",
		"version", version,
		"env", cfg.Env,
		"source", cfg.Source.Kind,
		"output", cfg.Output.Path,
		"format", cfg.Output.Format,
	)

	if err := application.Run(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Warn("Run interrupted", "error", err)
			return 130
		}
		report.ReportError(err, sentry.LevelFatal)
		logger.Error("Run failed", "error", err)
		return 1
	}

	logger.Info("Run complete")
	return 0
}

// applyFlags copies the flags set on the command line into cfg.
func applyFlags(cfg *config.Config, fv flagValues) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "env":
			cfg.Env = fv.env
		case "source":
			cfg.Source.Kind = fv.source
		case "gtfs":
			cfg.Source.GTFSPath = fv.gtfsPath
			cfg.Source.Kind = "gtfs"
		case "lines":
			cfg.Source.Lines = splitLines(fv.lines)
		case "out":
			cfg.Output.Path = fv.out
		case "format":
			cfg.Output.Format = fv.format
		case "plot":
			cfg.Output.PlotPath = fv.plotPath
		case "metrics-file":
			cfg.Output.MetricsPath = fv.metricsPath
		}
	})
}

func splitLines(s string) []string {
	var lines []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, part)
		}
	}
	return lines
}
