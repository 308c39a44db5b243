// Package normalize joins a polled vehicle batch with trip updates and the
// static metadata tables, producing human-readable departure records. It is
// pure: no I/O, no mutation of inputs.
package normalize

import (
	"strconv"
	"strings"

	"github.com/gradski-prevoz/tracker/internal/feed"
	"github.com/gradski-prevoz/tracker/internal/static"
)

// DepartureRecord is a normalized departure, ready for the daily log
type DepartureRecord struct {
	VehicleLabel     string
	RouteDisplayName string
	StartTime        string
	DestinationName  string
}

// StopID normalizes a destination stop id. Some stop identifiers arrive
// with a platform prefix: a 5-digit id starting with "2" is the same stop
// as the 4-digit id behind it. The rule is an upstream convention with no
// stated rationale; keep it exactly as observed.
func StopID(id string) string {
	if len(id) == 5 && id[0] == '2' {
		if n, err := strconv.Atoi(id[1:]); err == nil {
			return strconv.Itoa(n)
		}
	}
	return id
}

// RouteID canonicalizes a raw route id to its decimal form, stripping
// leading zeros and surrounding noise ("007" -> "7"). Non-numeric ids
// pass through unchanged.
func RouteID(id string) string {
	if n, err := strconv.Atoi(strings.TrimSpace(id)); err == nil {
		return strconv.Itoa(n)
	}
	return id
}

// Departures joins vehicles with their trip updates and resolves station
// and route display names. Output order matches input vehicle order.
func Departures(vehicles []feed.RawVehicle, updates []feed.TripUpdate, stations map[string]static.Station, routes map[string]string) []DepartureRecord {
	// vehicle id -> destination stop id; last write wins on duplicates
	destinations := make(map[string]string, len(updates))
	for _, u := range updates {
		destinations[u.VehicleID] = u.DestinationStopID
	}

	records := make([]DepartureRecord, 0, len(vehicles))
	for _, v := range vehicles {
		destName := "Unknown"
		if destID, ok := destinations[v.ID]; ok {
			if station, ok := stations[StopID(destID)]; ok {
				destName = station.Name
			} else {
				// Fall back to the raw id as the display name
				destName = destID
			}
		}

		routeID := RouteID(v.RouteID)
		display, ok := routes[routeID]
		if !ok {
			display = routeID
		}

		start := v.StartTime
		if start == "" {
			start = "N/A"
		}

		records = append(records, DepartureRecord{
			VehicleLabel:     v.Label,
			RouteDisplayName: display,
			StartTime:        start,
			DestinationName:  destName,
		})
	}

	return records
}
