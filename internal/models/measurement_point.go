package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Reserved keys of a measurement record. Every other numeric key is a
// plottable field; other values are carried along in Extra.
const (
	KeyID        = "id"
	KeyLat       = "lat"
	KeyLon       = "lon"
	KeyTimestamp = "timestamp"
)

// MeasurementPoint represents a single geolocated measurement
type MeasurementPoint struct {
	ID        string             `json:"id"`
	Lat       float64            `json:"lat"`
	Lon       float64            `json:"lon"`
	Timestamp string             `json:"timestamp,omitempty"` // Display only
	Fields    map[string]float64 `json:"-"`                   // latency, throughput, rtt, ...

	// Extra holds non-numeric keys such as a location name. They are never plotted.
	Extra map[string]interface{} `json:"-"`
}

// NewMeasurementPoint creates a point carrying a single scalar field
func NewMeasurementPoint(id string, lat, lon float64, field string, value float64) MeasurementPoint {
	return MeasurementPoint{
		ID:     id,
		Lat:    lat,
		Lon:    lon,
		Fields: map[string]float64{field: value},
	}
}

// Value returns the named scalar field
func (p MeasurementPoint) Value(field string) (float64, bool) {
	v, ok := p.Fields[field]
	return v, ok
}

// FieldNames returns the scalar field names in sorted order
func (p MeasurementPoint) FieldNames() []string {
	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasExtra reports whether key was present with a non-numeric value
func (p MeasurementPoint) HasExtra(key string) bool {
	_, ok := p.Extra[key]
	return ok
}

// MarshalJSON flattens the scalar fields next to the reserved keys
func (p MeasurementPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Fields)+len(p.Extra)+4)
	for k, v := range p.Extra {
		out[k] = v
	}
	for k, v := range p.Fields {
		out[k] = v
	}
	out[KeyID] = p.ID
	out[KeyLat] = p.Lat
	out[KeyLon] = p.Lon
	if p.Timestamp != "" {
		out[KeyTimestamp] = p.Timestamp
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a flat measurement mapping
func (p *MeasurementPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return p.FromMap(raw)
}

// FromMap fills the point from a decoded mapping (JSON or YAML)
func (p *MeasurementPoint) FromMap(raw map[string]interface{}) error {
	*p = MeasurementPoint{Fields: make(map[string]float64)}

	for key, val := range raw {
		switch key {
		case KeyID:
			switch id := val.(type) {
			case string:
				p.ID = id
			case nil:
			default:
				p.ID = fmt.Sprint(id)
			}
		case KeyTimestamp:
			if val != nil {
				p.Timestamp = fmt.Sprint(val)
			}
		case KeyLat, KeyLon:
			f, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("field %q: expected number, got %T", key, val)
			}
			if key == KeyLat {
				p.Lat = f
			} else {
				p.Lon = f
			}
		default:
			if val == nil {
				continue
			}
			if f, ok := toFloat(val); ok {
				p.Fields[key] = f
				continue
			}
			if p.Extra == nil {
				p.Extra = make(map[string]interface{})
			}
			p.Extra[key] = val
		}
	}

	if _, ok := raw[KeyLat]; !ok {
		return fmt.Errorf("missing %q", KeyLat)
	}
	if _, ok := raw[KeyLon]; !ok {
		return fmt.Errorf("missing %q", KeyLon)
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
