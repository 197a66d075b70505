package models

import "tubestats.onebusaway.org/internal/geo"

// StopPoint is one row of the dataset: a station on a tube line, with its
// distance from central London and the number of tube lines it connects to.
type StopPoint struct {
	Line        string  `json:"line"`
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Distance    float64 `json:"distance"` // km from geo.CentralLondon
	Connections int     `json:"connections"`
	Cell        string  `json:"cell"`
}

// Point returns the stop point's location.
func (sp StopPoint) Point() geo.Point {
	return geo.Point{Lat: sp.Lat, Lon: sp.Lon}
}

// NewStopPoint builds a StopPoint at the given location, deriving its distance
// from centre and its S2 cell.
func NewStopPoint(line, id, name string, lat, lon float64, connections int, centre geo.Point) StopPoint {
	p := geo.Point{Lat: lat, Lon: lon}
	return StopPoint{
		Line:        line,
		ID:          id,
		Name:        name,
		Lat:         lat,
		Lon:         lon,
		Distance:    geo.DistanceKm(centre, p),
		Connections: connections,
		Cell:        geo.CellID(p),
	}
}
