package models

// FigureSize is the canvas size in inches
type FigureSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// RenderOptions controls how a measurement map is drawn
type RenderOptions struct {
	Title      string `json:"title" yaml:"title"`
	ValueLabel string `json:"value_label" yaml:"value_label"`
	ValueUnit  string `json:"value_unit,omitempty" yaml:"value_unit"`

	// ValueField names the scalar to plot. When empty the field is derived
	// from ValueLabel on a best-effort basis.
	ValueField string `json:"value_field,omitempty" yaml:"value_field"`

	FigureSize    FigureSize `json:"figure_size" yaml:"figure_size"`
	ZoomLevel     int        `json:"zoom_level" yaml:"zoom_level"`
	PaddingMeters float64    `json:"padding_meters" yaml:"padding_meters"`
}

// Default render option values
const (
	DefaultTitle         = "Measurement Map"
	DefaultValueLabel    = "Value"
	DefaultFigureWidth   = 8.0
	DefaultFigureHeight  = 8.0
	DefaultZoomLevel     = 18
	DefaultPaddingMeters = 20.0
)

// DefaultRenderOptions returns the stock options
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Title:         DefaultTitle,
		ValueLabel:    DefaultValueLabel,
		FigureSize:    FigureSize{Width: DefaultFigureWidth, Height: DefaultFigureHeight},
		ZoomLevel:     DefaultZoomLevel,
		PaddingMeters: DefaultPaddingMeters,
	}
}

// WithDefaults fills zero-valued fields from DefaultRenderOptions.
// A zero PaddingMeters counts as omitted, so the viewport never collapses
// to a zero-area box around a single point.
func (o RenderOptions) WithDefaults() RenderOptions {
	d := DefaultRenderOptions()
	if o.Title == "" {
		o.Title = d.Title
	}
	if o.ValueLabel == "" {
		o.ValueLabel = d.ValueLabel
	}
	if o.FigureSize.Width == 0 && o.FigureSize.Height == 0 {
		o.FigureSize = d.FigureSize
	}
	if o.ZoomLevel == 0 {
		o.ZoomLevel = d.ZoomLevel
	}
	if o.PaddingMeters == 0 {
		o.PaddingMeters = d.PaddingMeters
	}
	return o
}
