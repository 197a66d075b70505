package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"tubestats.onebusaway.org/internal/geo"
)

// GroupStats describes the distance distribution of the stop points sharing
// a connection count. Distances are in kilometres.
type GroupStats struct {
	Connections int
	Count       int
	Mean        float64
	StdDev      float64 // zero for groups of one
	Min         float64
	Q1          float64
	Median      float64
	Q3          float64
	Max         float64
}

// LineCount is the number of rows contributed by a line.
type LineCount struct {
	LineID string
	Count  int
}

// Summary aggregates a Table.
type Summary struct {
	Rows        int
	Groups      []GroupStats // ascending by Connections
	PerLine     []LineCount  // in table order
	BoundingBox geo.BoundingBox
	HasBounds   bool
}

// DistancesByConnections groups row distances by connection count. The keys
// are returned in ascending order and each group is sorted.
func (t *Table) DistancesByConnections() ([]int, map[int][]float64) {
	groups := make(map[int][]float64)
	for _, row := range t.Rows {
		groups[row.Connections] = append(groups[row.Connections], row.Distance)
	}

	keys := make([]int, 0, len(groups))
	for k, values := range groups {
		keys = append(keys, k)
		sort.Float64s(values)
	}
	sort.Ints(keys)
	return keys, groups
}

func (t *Table) Summary() Summary {
	s := Summary{Rows: len(t.Rows)}

	keys, groups := t.DistancesByConnections()
	for _, k := range keys {
		s.Groups = append(s.Groups, describe(k, groups[k]))
	}

	index := make(map[string]int)
	points := make([]geo.Point, 0, len(t.Rows))
	for _, row := range t.Rows {
		i, ok := index[row.Line]
		if !ok {
			i = len(s.PerLine)
			index[row.Line] = i
			s.PerLine = append(s.PerLine, LineCount{LineID: row.Line})
		}
		s.PerLine[i].Count++
		points = append(points, row.Point())
	}

	if bbox, err := geo.ComputeBoundingBox(points); err == nil {
		s.BoundingBox = bbox
		s.HasBounds = true
	}
	return s
}

// describe computes the statistics of a sorted, non-empty sample.
func describe(connections int, sorted []float64) GroupStats {
	g := GroupStats{
		Connections: connections,
		Count:       len(sorted),
		Mean:        stat.Mean(sorted, nil),
		Min:         sorted[0],
		Q1:          stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median:      stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:          stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:         sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		if sd := stat.StdDev(sorted, nil); !math.IsNaN(sd) {
			g.StdDev = sd
		}
	}
	return g
}
