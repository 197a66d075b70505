package app

import (
	"math"

	"tubestats.onebusaway.org/internal/dataset"
)

func (app *Application) logSummary(s dataset.Summary) {
	app.Logger.Info("Dataset summary", "rows", s.Rows, "lines", len(s.PerLine), "groups", len(s.Groups))

	for _, g := range s.Groups {
		app.Logger.Info("Distance by connections",
			"connections", g.Connections,
			"count", g.Count,
			"mean_km", round3(g.Mean),
			"std_km", round3(g.StdDev),
			"min_km", round3(g.Min),
			"q1_km", round3(g.Q1),
			"median_km", round3(g.Median),
			"q3_km", round3(g.Q3),
			"max_km", round3(g.Max),
		)
	}

	for _, lc := range s.PerLine {
		app.Logger.Debug("Stop points per line", "line", lc.LineID, "count", lc.Count)
	}

	if s.HasBounds {
		app.Logger.Info("Stop point bounding box", "bbox", s.BoundingBox.String())
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
