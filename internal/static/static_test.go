package static

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadStations(t *testing.T) {
	path := writeFile(t, "all.json", `[
		{"id": "1234", "name": "Centar", "coords": [44.81, 20.46]},
		{"id": "1235", "name": "Zeleznik", "coords": ["44.72", "20.38"]},
		{"id": "", "name": "bez id", "coords": [1, 2]},
		{"id": "1236", "name": "", "coords": [1, 2]},
		{"id": "1237", "name": "bez koordinata", "coords": [44.81]},
		{"id": "1238", "name": "lose koordinate", "coords": ["n/a", "20"]}
	]`)

	stations, err := LoadStations(path)
	if err != nil {
		t.Fatalf("LoadStations() error = %v", err)
	}

	want := map[string]Station{
		"1234": {ID: "1234", Name: "Centar", Lat: 44.81, Lon: 20.46},
		"1235": {ID: "1235", Name: "Zeleznik", Lat: 44.72, Lon: 20.38},
	}
	if !reflect.DeepEqual(stations, want) {
		t.Errorf("LoadStations() = %v, want %v", stations, want)
	}
}

func TestLoadStationsMissingFile(t *testing.T) {
	if _, err := LoadStations(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("LoadStations() with missing file should fail")
	}
}

func TestLoadStationsBadJSON(t *testing.T) {
	path := writeFile(t, "all.json", `{"not": "an array"}`)
	if _, err := LoadStations(path); err == nil {
		t.Error("LoadStations() with malformed file should fail")
	}
}

func TestLoadRoutes(t *testing.T) {
	path := writeFile(t, "route-mapping.json", `{"7": "7A-Centar", "24": "24-Zemun"}`)

	routes, err := LoadRoutes(path)
	if err != nil {
		t.Fatalf("LoadRoutes() error = %v", err)
	}

	want := map[string]string{"7": "7A-Centar", "24": "24-Zemun"}
	if !reflect.DeepEqual(routes, want) {
		t.Errorf("LoadRoutes() = %v, want %v", routes, want)
	}
}

func TestFileSourcesRereadOnEachCall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route-mapping.json")
	if err := os.WriteFile(path, []byte(`{"7": "staro"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	src := FileRoutes{Path: path}
	ctx := context.Background()

	first, err := src.Routes(ctx)
	if err != nil {
		t.Fatalf("Routes() error = %v", err)
	}
	if first["7"] != "staro" {
		t.Fatalf("Routes()[7] = %q", first["7"])
	}

	if err := os.WriteFile(path, []byte(`{"7": "novo"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	second, err := src.Routes(ctx)
	if err != nil {
		t.Fatalf("Routes() error = %v", err)
	}
	if second["7"] != "novo" {
		t.Errorf("Routes()[7] = %q, want the regenerated table", second["7"])
	}
}
