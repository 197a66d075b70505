package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// Point is a WGS84 latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// CentralLondon is the reference point distances are measured from
// (Charing Cross area).
var CentralLondon = Point{Lat: 51.509865, Lon: -0.118092}

// BoundingBox defines the corners of a lat/lon box
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains checks whether the given latitude and longitude are within the bounding box
func (b *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%.6f,%.6f]-[%.6f,%.6f]", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

// ComputeBoundingBox computes the bounding box of the given points,
// ignoring any with invalid coordinates.
func ComputeBoundingBox(points []Point) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, fmt.Errorf("no points to compute bounding box")
	}

	minLat := math.MaxFloat64
	maxLat := -math.MaxFloat64
	minLon := math.MaxFloat64
	maxLon := -math.MaxFloat64

	for _, p := range points {
		if !IsValidLatLon(p.Lat, p.Lon) {
			continue
		}
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	if minLat == math.MaxFloat64 {
		return BoundingBox{}, fmt.Errorf("no valid latitude/longitude found in points")
	}

	return BoundingBox{
		MinLat: minLat,
		MaxLat: maxLat,
		MinLon: minLon,
		MaxLon: maxLon,
	}, nil
}

// IsValidLatLon returns true if the given latitude and longitude values
// fall within the valid geographic coordinate bounds.
//
// Latitude must be between -90 and 90 degrees, and longitude must be
// between -180 and 180 degrees.
//
// Note: This function treats the coordinate (0,0) as invalid, even though it
// is a valid location in the Gulf of Guinea. This assumption is made to help
// detect uninitialized or placeholder coordinates commonly represented as (0,0).
func IsValidLatLon(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return true
}

// earthRadiusInMeters represents the mean radius of the Earth in meters.
//
// This value (6,371,000 meters) is defined as the Earth's volumetric mean radius,
// which is commonly used for general geospatial calculations and spherical approximations.
//
// Reference: NASA Planetary Fact Sheet – Earth
// https://nssdc.gsfc.nasa.gov/planetary/factsheet/earthfact.html
const earthRadiusInMeters = 6371000

// HaversineDistance returns the great-circle distance in meters between two
// lat/lon pairs given in degrees.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * earthRadiusInMeters
}

// DistanceKm returns the great-circle distance between a and b in kilometres.
func DistanceKm(a, b Point) float64 {
	return HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon) / 1000
}
