package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"tubestats.onebusaway.org/internal/config"
	"tubestats.onebusaway.org/internal/geo"
	"tubestats.onebusaway.org/internal/gtfs"
	"tubestats.onebusaway.org/internal/models"
	"tubestats.onebusaway.org/internal/tfl"
)

// StopPointSource provides the lines to analyse and the stop points on each.
// tfl.Client and gtfs.Source both implement it.
type StopPointSource interface {
	LineIDs(ctx context.Context) ([]string, error)
	LineStopPoints(ctx context.Context, lineID string) ([]models.StopPoint, error)
}

// Application holds the configuration and dependencies of one pipeline run.
type Application struct {
	Config   *config.Config
	Source   StopPointSource
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	Version  string
}

// New creates and wires all dependencies for the Application.
// The stop-point source is chosen by cfg.Source.Kind.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, version string) (*Application, error) {
	var source StopPointSource

	switch cfg.Source.Kind {
	case "gtfs":
		centre := geo.Point{Lat: cfg.Centre.Lat, Lon: cfg.Centre.Lon}
		source = gtfs.NewSource(cfg.Source.GTFSPath, centre, cfg.Retry.Attempts-1, gtfs.NewStaticStore(), logger, client)
	case "tfl", "":
		tflClient, err := tfl.NewClient(cfg, client, logger)
		if err != nil {
			return nil, err
		}
		source = tflClient
	default:
		return nil, fmt.Errorf("unknown stop point source %q", cfg.Source.Kind)
	}

	return &Application{
		Config:   cfg,
		Source:   source,
		Logger:   logger,
		Gatherer: prometheus.DefaultGatherer,
		Version:  version,
	}, nil
}
