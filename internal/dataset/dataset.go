// Package dataset loads measurement points from YAML or JSON files and
// provides the built-in Oslo walking route.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jengzang/measurement-map-go/internal/models"
)

// ErrFormat is returned for files that are neither YAML nor JSON
var ErrFormat = errors.New("unsupported dataset format")

// Supported formats
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

const timestampLayout = "2006-01-02 15:04:05"

// OsloRoute returns the example walk through central Oslo, with latency in ms
func OsloRoute() []models.MeasurementPoint {
	rows := []struct {
		id       string
		lat, lon float64
		latency  float64
		ts       string
	}{
		{"Point_01", 59.9115, 10.7522, 12.5, "2024-01-15 14:30:00"},
		{"Point_02", 59.9118, 10.7520, 15.2, "2024-01-15 14:30:15"},
		{"Point_03", 59.9121, 10.7518, 8.7, "2024-01-15 14:30:30"},
		{"Point_04", 59.9124, 10.7516, 22.1, "2024-01-15 14:30:45"},
		{"Point_05", 59.9127, 10.7514, 18.9, "2024-01-15 14:31:00"},
		{"Point_21", 59.9165, 10.7470, 18.3, "2024-01-15 14:35:00"},
	}

	points := make([]models.MeasurementPoint, len(rows))
	for i, r := range rows {
		points[i] = models.NewMeasurementPoint(r.id, r.lat, r.lon, "latency", r.latency)
		points[i].Timestamp = r.ts
	}
	return points
}

// FormatOf maps a file extension to a dataset format
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
	}
}

// LoadPoints reads points from a .yaml, .yml or .json file
func LoadPoints(path string) ([]models.MeasurementPoint, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	points, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return points, nil
}

// Decode reads points from r. The document is either a list of flat
// mappings or a mapping with a "points" list.
func Decode(r io.Reader, format string) ([]models.MeasurementPoint, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if m, ok := doc.(map[string]interface{}); ok {
		doc = m["points"]
	}
	rows, ok := doc.([]interface{})
	if !ok {
		return nil, errors.New("expected a list of points")
	}

	points := make([]models.MeasurementPoint, 0, len(rows))
	for i, row := range rows {
		raw, ok := row.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("point %d: expected a mapping, got %T", i, row)
		}
		if ts, ok := raw[models.KeyTimestamp].(time.Time); ok {
			raw[models.KeyTimestamp] = ts.Format(timestampLayout)
		}

		var p models.MeasurementPoint
		if err := p.FromMap(raw); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}
