package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"tubestats.onebusaway.org/internal/models"
)

// Columns is the header written by WriteCSV, in column order.
var Columns = []string{"line", "id", "name", "lat", "lon", "distance", "connections", "cell"}

// LineResult holds the stop points fetched for one line.
type LineResult struct {
	LineID string
	Points []models.StopPoint
}

// Table is the assembled dataset: one row per stop point per line.
type Table struct {
	Rows []models.StopPoint
}

// Build concatenates per-line results into a single table, keeping the order
// of results and of the points within each line.
func Build(results []LineResult) *Table {
	n := 0
	for _, r := range results {
		n += len(r.Points)
	}

	t := &Table{Rows: make([]models.StopPoint, 0, n)}
	for _, r := range results {
		t.Rows = append(t.Rows, r.Points...)
	}
	return t
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Write encodes the table in the given format, "csv" or "json".
func (t *Table) Write(w io.Writer, format string) error {
	switch format {
	case "csv":
		return t.WriteCSV(w)
	case "json":
		return t.WriteJSON(w)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range t.Rows {
		record := []string{
			row.Line,
			row.ID,
			row.Name,
			strconv.FormatFloat(row.Lat, 'f', -1, 64),
			strconv.FormatFloat(row.Lon, 'f', -1, 64),
			strconv.FormatFloat(row.Distance, 'f', 6, 64),
			strconv.Itoa(row.Connections),
			row.Cell,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", row.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows as a JSON array of objects keyed by column name.
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	rows := t.Rows
	if rows == nil {
		rows = []models.StopPoint{}
	}
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
