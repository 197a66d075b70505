package tfl

import (
	"context"
	"encoding/json"
	"fmt"

	"tubestats.onebusaway.org/internal/geo"
	"tubestats.onebusaway.org/internal/metrics"
	"tubestats.onebusaway.org/internal/models"
)

type lineRoute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type lineIdentifier struct {
	ID string `json:"id"`
}

type stopPoint struct {
	ID         string           `json:"id"`
	NaptanID   string           `json:"naptanId"`
	CommonName string           `json:"commonName"`
	Lat        *float64         `json:"lat"`
	Lon        *float64         `json:"lon"`
	Lines      []lineIdentifier `json:"lines"`
}

// TubeLineIDs returns the ids of every line of the configured mode, in the
// order the API lists them. The result is fetched once per Client.
func (c *Client) TubeLineIDs(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lineIDs != nil {
		return c.lineIDs, nil
	}

	body, err := c.Get(ctx, "Line", "Mode", c.mode, "Route")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s lines: %w", c.mode, err)
	}

	var routes []lineRoute
	if err := json.Unmarshal(body, &routes); err != nil {
		return nil, fmt.Errorf("failed to decode %s lines: %w", c.mode, err)
	}

	ids := make([]string, 0, len(routes))
	for _, r := range routes {
		if r.ID == "" {
			continue
		}
		ids = append(ids, r.ID)
	}

	c.logger.Info("Fetched line ids", "mode", c.mode, "count", len(ids))
	c.lineIDs = ids
	return ids, nil
}

// LineIDs is TubeLineIDs under the name the pipeline's source interface uses.
func (c *Client) LineIDs(ctx context.Context) ([]string, error) {
	return c.TubeLineIDs(ctx)
}

// LineStopPoints fetches the stop points of lineID. Each point's connections
// count the tube lines among the lines serving it, including lineID itself.
// Points without usable coordinates are dropped.
func (c *Client) LineStopPoints(ctx context.Context, lineID string) ([]models.StopPoint, error) {
	tubeLines, err := c.TubeLineIDs(ctx)
	if err != nil {
		return nil, err
	}
	isTube := make(map[string]struct{}, len(tubeLines))
	for _, id := range tubeLines {
		isTube[id] = struct{}{}
	}

	body, err := c.Get(ctx, "Line", lineID, "StopPoints")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stop points for line %s: %w", lineID, err)
	}

	var raw []stopPoint
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode stop points for line %s: %w", lineID, err)
	}

	points := make([]models.StopPoint, 0, len(raw))
	for _, sp := range raw {
		id := sp.NaptanID
		if id == "" {
			id = sp.ID
		}

		if sp.Lat == nil || sp.Lon == nil || !geo.IsValidLatLon(*sp.Lat, *sp.Lon) {
			metrics.SkippedStopPoints.WithLabelValues(lineID).Inc()
			c.logger.Warn("Skipping stop point with invalid coordinates",
				"line", lineID, "stop_id", id, "name", sp.CommonName)
			continue
		}

		connections := 0
		for _, l := range sp.Lines {
			if _, ok := isTube[l.ID]; ok {
				connections++
			}
		}

		points = append(points, models.NewStopPoint(lineID, id, sp.CommonName, *sp.Lat, *sp.Lon, connections, c.centre))
	}

	return points, nil
}
