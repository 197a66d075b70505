package models

import (
	remoteGtfs "github.com/jamespfennell/gtfs"
)

// StaticData represents the parts of a GTFS static bundle used to derive
// tube stop points: routes, the stop hierarchy, scheduled trips and the
// calendar services that bound the feed's validity.
type StaticData struct {
	Routes   []remoteGtfs.Route
	Stops    []remoteGtfs.Stop
	Trips    []remoteGtfs.ScheduledTrip
	Services []remoteGtfs.Service
}

// NewStaticData keeps only what the stop-point derivation needs. Trips and
// stops still point into the parsed bundle, so the slices share its backing
// arrays rather than copying.
func NewStaticData(gtfsStaticBundle *remoteGtfs.Static) *StaticData {
	return &StaticData{
		Routes:   gtfsStaticBundle.Routes,
		Stops:    gtfsStaticBundle.Stops,
		Trips:    gtfsStaticBundle.Trips,
		Services: gtfsStaticBundle.Services,
	}
}
