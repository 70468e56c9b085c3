package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/jengzang/measurement-map-go/internal/models"
)

// FallbackFields are probed in order when the value field is derived
var FallbackFields = []string{"value", "latency", "throughput", "rtt", "delay"}

// DeriveFieldName turns a display label into a field name: "Round Trip" -> "round_trip"
func DeriveFieldName(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "_")
}

// ResolveValueField picks the record key holding the plotted scalar.
//
// An explicit opts.ValueField always wins. Otherwise the name is derived
// from opts.ValueLabel and, failing that, taken from the first of
// FallbackFields present on sample. The derived path is a best-effort
// convenience; callers with other field names should set ValueField.
func ResolveValueField(opts models.RenderOptions, sample models.MeasurementPoint) (string, error) {
	if opts.ValueField != "" {
		if _, ok := sample.Value(opts.ValueField); !ok {
			if sample.HasExtra(opts.ValueField) {
				return "", fmt.Errorf("%w: value field %q of point %q is not numeric", ErrInput, opts.ValueField, sample.ID)
			}
			return "", fmt.Errorf("%w: value field %q not found in point %q; available fields: %v",
				ErrInput, opts.ValueField, sample.ID, sample.FieldNames())
		}
		return opts.ValueField, nil
	}

	derived := DeriveFieldName(opts.ValueLabel)
	if _, ok := sample.Value(derived); ok {
		return derived, nil
	}
	for _, name := range FallbackFields {
		if _, ok := sample.Value(name); ok {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w: could not find value field for label %q; available fields: %v",
		ErrInput, opts.ValueLabel, sample.FieldNames())
}

// extractValues reads field from every point, failing on the first point
// without it or with a NaN or infinite value
func extractValues(points []models.MeasurementPoint, field string) ([]float64, error) {
	values := make([]float64, len(points))
	for i, p := range points {
		v, ok := p.Value(field)
		if !ok && p.HasExtra(field) {
			return nil, fmt.Errorf("%w: point %d (%q) has non-numeric value field %q", ErrInput, i, p.ID, field)
		}
		if !ok {
			return nil, fmt.Errorf("%w: point %d (%q) has no value field %q", ErrInput, i, p.ID, field)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: point %d (%q) has non-finite %s value %v", ErrInput, i, p.ID, field, v)
		}
		values[i] = v
	}
	return values, nil
}
