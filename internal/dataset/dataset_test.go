package dataset

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlRoute = `
points:
  - id: Point_01
    lat: 59.9115
    lon: 10.7522
    latency: 12.5
    timestamp: "2024-01-15 14:30:00"
  - id: Point_02
    lat: 59.9118
    lon: 10.7520
    latency: 15
`

const jsonRoute = `[
  {"id": "a", "lat": 1.5, "lon": 2.5, "throughput": 100},
  {"id": "b", "lat": 1.6, "lon": 2.6, "throughput": 120.5}
]`

func TestOsloRoute(t *testing.T) {
	points := OsloRoute()
	if len(points) != 6 {
		t.Fatalf("len(OsloRoute()) = %d, want 6", len(points))
	}
	if points[0].ID != "Point_01" || points[5].ID != "Point_21" {
		t.Errorf("ids = %s..%s, want Point_01..Point_21", points[0].ID, points[5].ID)
	}
	if v, _ := points[3].Value("latency"); v != 22.1 {
		t.Errorf("Point_04 latency = %v, want 22.1", v)
	}
}

func TestLoadPoints(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		file      string
		content   string
		field     string
		wantCount int
		wantLast  float64
	}{
		{name: "yaml envelope", file: "route.yaml", content: yamlRoute, field: "latency", wantCount: 2, wantLast: 15},
		{name: "yml extension", file: "route.yml", content: yamlRoute, field: "latency", wantCount: 2, wantLast: 15},
		{name: "json list", file: "route.json", content: jsonRoute, field: "throughput", wantCount: 2, wantLast: 120.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			points, err := LoadPoints(path)
			if err != nil {
				t.Fatalf("LoadPoints() error = %v, want nil", err)
			}
			if len(points) != tt.wantCount {
				t.Fatalf("len(points) = %d, want %d", len(points), tt.wantCount)
			}
			last := points[len(points)-1]
			if v, ok := last.Value(tt.field); !ok || v != tt.wantLast {
				t.Errorf("last %s = %v (%v), want %v", tt.field, v, ok, tt.wantLast)
			}
		})
	}
}

func TestLoadPoints_YAMLTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.yaml")
	content := "- {id: p, lat: 1, lon: 2, value: 3, timestamp: 2024-01-15 14:30:00}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	points, err := LoadPoints(path)
	if err != nil {
		t.Fatalf("LoadPoints() error = %v, want nil", err)
	}
	if got := points[0].Timestamp; got != "2024-01-15 14:30:00" {
		t.Errorf("Timestamp = %q, want 2024-01-15 14:30:00", got)
	}
}

func TestLoadPoints_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{name: "unknown extension", file: "route.csv", content: "id,lat,lon", want: "unsupported dataset format"},
		{name: "missing lon", file: "route.json", content: `[{"id": "a", "lat": 1}]`, want: `missing "lon"`},
		{name: "non-numeric lat", file: "bad.yaml", content: "- {id: a, lat: north, lon: 2, latency: 3}", want: "expected number"},
		{name: "not a list", file: "scalar.yaml", content: "hello", want: "expected a list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadPoints(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadPoints() error = %v, want containing %q", err, tt.want)
			}
		})
	}

	if _, err := LoadPoints(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadPoints(missing) error = %v, want ErrNotExist", err)
	}
}

func TestDecode_KeepsDescriptiveFields(t *testing.T) {
	const route = `[
  {"id": "Point_01", "lat": 59.9, "lon": 10.7, "latency": 12.5, "location": "Central Station"},
  {"id": "Point_02", "lat": 59.91, "lon": 10.71, "latency": 15.2, "location": null, "indoor": true}
]`

	points, err := Decode(strings.NewReader(route), FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	if len(points) != 2 {
		t.Fatalf("len(points) = %d, want 2", len(points))
	}
	if v, ok := points[0].Value("latency"); !ok || v != 12.5 {
		t.Errorf("latency = %v, %v; want 12.5", v, ok)
	}
	if got := points[0].FieldNames(); len(got) != 1 || got[0] != "latency" {
		t.Errorf("FieldNames() = %v, want [latency]", got)
	}
	if points[0].Extra["location"] != "Central Station" || !points[0].HasExtra("location") {
		t.Errorf("Extra = %v, want location kept", points[0].Extra)
	}
	if points[1].HasExtra("location") || !points[1].HasExtra("indoor") {
		t.Errorf("Extra = %v, want indoor only", points[1].Extra)
	}

	yamlPoints, err := Decode(strings.NewReader("- {id: a, lat: 1, lon: 2, latency: 3, note: walking}"), FormatYAML)
	if err != nil {
		t.Fatalf("Decode(yaml) error = %v, want nil", err)
	}
	if yamlPoints[0].Extra["note"] != "walking" {
		t.Errorf("yaml Extra = %v, want note kept", yamlPoints[0].Extra)
	}

	data, err := json.Marshal(points[0])
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"location":"Central Station"`) {
		t.Errorf("marshalled point %s lost the location", data)
	}
}
