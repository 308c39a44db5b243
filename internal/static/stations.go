package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Station is a single entry in the station lookup table
type Station struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// stationJSON matches the all.json dump: coordinates may arrive as
// strings or numbers depending on which scraper produced the file.
type stationJSON struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Coords []json.Number `json:"coords"`
}

// LoadStations reads the station table from an all.json dump and returns
// a stop-id keyed map. Entries missing an id, name or coordinates are
// skipped, matching how the table was built upstream.
func LoadStations(path string) (map[string]Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stations file: %w", err)
	}

	var entries []stationJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse stations file: %w", err)
	}

	stations := make(map[string]Station, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.Name == "" || len(e.Coords) < 2 {
			continue
		}
		lat, err := e.Coords[0].Float64()
		if err != nil {
			continue
		}
		lon, err := e.Coords[1].Float64()
		if err != nil {
			continue
		}
		stations[e.ID] = Station{ID: e.ID, Name: e.Name, Lat: lat, Lon: lon}
	}

	return stations, nil
}

// FileStations loads the station table from disk on every call, so a
// regenerated all.json is picked up without a restart.
type FileStations struct {
	Path string
}

// Stations implements the pipeline's station source
func (f FileStations) Stations(ctx context.Context) (map[string]Station, error) {
	return LoadStations(f.Path)
}
