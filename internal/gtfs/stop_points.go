package gtfs

import (
	remoteGtfs "github.com/jamespfennell/gtfs"
	"tubestats.onebusaway.org/internal/geo"
	"tubestats.onebusaway.org/internal/models"
)

// subwayRouteType is route_type 1 in routes.txt: subway or metro.
const subwayRouteType remoteGtfs.RouteType = 1

type stationRef struct {
	key  string
	stop *remoteGtfs.Stop
}

// lineIndex maps subway routes to the stations their trips call at.
type lineIndex struct {
	lineIDs      []string
	lineStations map[string][]stationRef
	stationLines map[string]map[string]struct{}
}

// stationFor rolls a stop up to the station it belongs to. Stops outside any
// station hierarchy stand for themselves.
func stationFor(stop *remoteGtfs.Stop) (stationRef, bool) {
	if root := stop.Root(); root != stop && root.Type == remoteGtfs.StopType_Station {
		return stationRef{key: root.Id, stop: root}, true
	}

	clusterID, clusterType, ok := geo.GetClusterID(*stop)
	if !ok {
		return stationRef{}, false
	}
	if clusterType == "station" {
		return stationRef{key: clusterID, stop: stop.Root()}, true
	}
	return stationRef{key: stop.Id, stop: stop}, true
}

func buildLineIndex(data *models.StaticData) *lineIndex {
	idx := &lineIndex{
		lineStations: make(map[string][]stationRef),
		stationLines: make(map[string]map[string]struct{}),
	}

	for _, route := range data.Routes {
		if route.Type != subwayRouteType {
			continue
		}
		idx.lineIDs = append(idx.lineIDs, route.Id)
		idx.lineStations[route.Id] = nil
	}

	seen := make(map[string]map[string]struct{})
	for i := range data.Trips {
		trip := &data.Trips[i]
		if trip.Route == nil || trip.Route.Type != subwayRouteType {
			continue
		}
		routeID := trip.Route.Id
		if seen[routeID] == nil {
			seen[routeID] = make(map[string]struct{})
		}

		for _, stopTime := range trip.StopTimes {
			if stopTime.Stop == nil {
				continue
			}
			ref, ok := stationFor(stopTime.Stop)
			if !ok {
				continue
			}

			if _, dup := seen[routeID][ref.key]; !dup {
				seen[routeID][ref.key] = struct{}{}
				idx.lineStations[routeID] = append(idx.lineStations[routeID], ref)
			}

			if idx.stationLines[ref.key] == nil {
				idx.stationLines[ref.key] = make(map[string]struct{})
			}
			idx.stationLines[ref.key][routeID] = struct{}{}
		}
	}

	return idx
}
