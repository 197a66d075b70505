package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"tubestats.onebusaway.org/internal/geo"
	"tubestats.onebusaway.org/internal/metrics"
	"tubestats.onebusaway.org/internal/models"
)

// Source derives tube stop points from a GTFS static bundle instead of the
// TfL API. Lines are the bundle's subway routes; a line's stop points are the
// stations its trips call at, in order of first visit.
type Source struct {
	Logger      *slog.Logger
	Client      *http.Client
	StaticStore *StaticStore

	source     string
	centre     geo.Point
	maxRetries int

	mu    sync.Mutex
	index *lineIndex
}

// NewSource returns a Source reading the bundle at source, which may be a
// zip file, a directory of zips, or an http(s) URL. Nothing is loaded until
// the first call that needs the bundle.
func NewSource(source string, centre geo.Point, maxRetries int, staticStore *StaticStore, logger *slog.Logger, client *http.Client) *Source {
	return &Source{
		Logger:      logger,
		Client:      client,
		StaticStore: staticStore,
		source:      source,
		centre:      centre,
		maxRetries:  maxRetries,
	}
}

// Load reads, parses and indexes the bundle. It is called implicitly by
// LineIDs and LineStopPoints, and is a no-op once it has succeeded.
func (s *Source) Load(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

func (s *Source) load(ctx context.Context) (*lineIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index, nil
	}

	staticData, ok := s.StaticStore.Get(s.source)
	if !ok {
		data, err := readGTFSBundle(ctx, s.source, s.Client, s.maxRetries, s.Logger)
		if err != nil {
			return nil, err
		}
		staticData, err = parseGTFSBundle(data, s.source)
		if err != nil {
			return nil, err
		}
		s.StaticStore.Set(s.source, staticData)
	}

	if earliest, latest, err := getEarliestAndLatestServiceDates(staticData); err != nil {
		s.Logger.Warn("Could not determine GTFS service window", "source", s.source, "error", err)
	} else {
		s.Logger.Info("Loaded GTFS bundle",
			"source", s.source,
			"routes", len(staticData.Routes),
			"stops", len(staticData.Stops),
			"trips", len(staticData.Trips),
			"earliest_service_end", earliest.Format("2006-01-02"),
			"latest_service_end", latest.Format("2006-01-02"),
		)
	}

	s.index = buildLineIndex(staticData)
	return s.index, nil
}

// LineIDs returns the ids of the bundle's subway routes in routes.txt order.
func (s *Source) LineIDs(ctx context.Context) ([]string, error) {
	idx, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return idx.lineIDs, nil
}

// LineStopPoints returns the stations served by lineID. Connections count
// the distinct subway routes calling at each station.
func (s *Source) LineStopPoints(ctx context.Context, lineID string) ([]models.StopPoint, error) {
	idx, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	stations, ok := idx.lineStations[lineID]
	if !ok {
		return nil, fmt.Errorf("no subway route %q in GTFS bundle %s", lineID, s.source)
	}

	points := make([]models.StopPoint, 0, len(stations))
	for _, ref := range stations {
		stop := ref.stop
		if stop.Latitude == nil || stop.Longitude == nil || !geo.IsValidLatLon(*stop.Latitude, *stop.Longitude) {
			metrics.SkippedStopPoints.WithLabelValues(lineID).Inc()
			s.Logger.Warn("Skipping station with invalid coordinates", "line", lineID, "stop_id", stop.Id, "name", stop.Name)
			continue
		}
		connections := len(idx.stationLines[ref.key])
		points = append(points, models.NewStopPoint(lineID, stop.Id, stop.Name, *stop.Latitude, *stop.Longitude, connections, s.centre))
	}
	return points, nil
}
