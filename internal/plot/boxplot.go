package plot

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"tubestats.onebusaway.org/internal/dataset"
)

const (
	boxWidth   = 20 // points
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// ErrNoRows is returned when there is nothing to plot.
var ErrNoRows = errors.New("plot: table has no rows")

var supportedFormats = map[string]bool{
	".png": true, ".svg": true, ".pdf": true, ".eps": true,
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// NewDistanceByConnections builds a box plot of stop distance from the centre
// with one box per connection count.
func NewDistanceByConnections(table *dataset.Table) (*plot.Plot, error) {
	if table == nil || table.Len() == 0 {
		return nil, ErrNoRows
	}

	keys, groups := table.DistancesByConnections()

	p := plot.New()
	p.Title.Text = "Tube stop distance from central London by connections"
	p.X.Label.Text = "connections"
	p.Y.Label.Text = "distance from centre (km)"

	names := make([]string, len(keys))
	for i, k := range keys {
		box, err := plotter.NewBoxPlot(vg.Points(boxWidth), float64(i), plotter.Values(groups[k]))
		if err != nil {
			return nil, fmt.Errorf("failed to build box for %d connections: %w", k, err)
		}
		p.Add(box)
		names[i] = strconv.Itoa(k)
	}
	p.NominalX(names...)

	return p, nil
}

// DistanceByConnections renders the box plot to path. The image format
// follows the file extension.
func DistanceByConnections(table *dataset.Table, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedFormats[ext] {
		return fmt.Errorf("plot: unsupported image format %q", ext)
	}

	p, err := NewDistanceByConnections(table)
	if err != nil {
		return err
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save plot to %s: %w", path, err)
	}
	return nil
}
