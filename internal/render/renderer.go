package render

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jengzang/measurement-map-go/internal/colormap"
	"github.com/jengzang/measurement-map-go/internal/models"
	"github.com/jengzang/measurement-map-go/internal/spatial"
	"github.com/jengzang/measurement-map-go/internal/stats"
	"github.com/jengzang/measurement-map-go/internal/tiles"
)

// Marker styling: matplotlib scatter s=60 (area in pt^2), alpha 0.8
var (
	MarkerRadiusPt = math.Sqrt(60 / math.Pi)
	MarkerAlpha    = 0.8
)

// StatsBoxInset is the lower-left offset of the statistics box, as a
// fraction of the map area
const StatsBoxInset = 0.02

var tracer = otel.Tracer("github.com/jengzang/measurement-map-go/internal/render")

// Renderer turns measurement points into a Figure. It holds no per-render
// state, so one Renderer may serve concurrent calls when its Fetcher can.
type Renderer struct {
	fetcher  tiles.Fetcher
	maxTiles int
}

// Option configures a Renderer
type Option func(*Renderer)

// WithMaxTiles caps the tiles one render may fetch
func WithMaxTiles(n int) Option {
	return func(r *Renderer) {
		r.maxTiles = n
	}
}

// NewRenderer creates a renderer drawing base maps from fetcher
func NewRenderer(fetcher tiles.Fetcher, opts ...Option) *Renderer {
	r := &Renderer{
		fetcher:  fetcher,
		maxTiles: tiles.DefaultMaxTiles,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render validates points and opts, fetches the base map and composes the
// figure. Input problems fail with ErrInput before any tile is requested.
func (r *Renderer) Render(ctx context.Context, points []models.MeasurementPoint, opts models.RenderOptions) (*Figure, *models.RenderSummary, error) {
	if err := validateOptions(opts); err != nil {
		return nil, nil, err
	}
	if len(points) == 0 {
		return nil, nil, fmt.Errorf("%w: no measurement points", ErrInput)
	}
	for i, p := range points {
		if !finiteCoordinate(p) {
			return nil, nil, fmt.Errorf("%w: point %d (%q) has non-finite coordinates %v,%v", ErrInput, i, p.ID, p.Lat, p.Lon)
		}
	}

	field, err := ResolveValueField(opts, points[0])
	if err != nil {
		return nil, nil, err
	}
	values, err := extractValues(points, field)
	if err != nil {
		return nil, nil, err
	}

	ctx, span := tracer.Start(ctx, "render.Render")
	defer span.End()
	span.SetAttributes(
		attribute.Int("render.points", len(points)),
		attribute.String("render.value_field", field),
		attribute.Int("render.zoom", opts.ZoomLevel),
	)

	start := time.Now()
	log.Printf("[MapRenderer] Rendering %d points (field=%s, zoom=%d)", len(points), field, opts.ZoomLevel)

	// 1. Viewport
	coords := spatial.PointsOf(points)
	vp := spatial.ComputeViewport(coords, opts.PaddingMeters)

	// 2. Base map, composited to grayscale
	mosaic, err := tiles.BuildMosaic(ctx, r.fetcher, vp, opts.ZoomLevel, r.maxTiles)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "base map failed")
		if errors.Is(err, tiles.ErrTooManyTiles) {
			return nil, nil, fmt.Errorf("%w: %w", ErrInput, err)
		}
		return nil, nil, fmt.Errorf("render base map: %w", err)
	}

	// 3. Colour scale
	minV, maxV := stats.MinMax(values)
	scale := colormap.NewValueScale(minV, maxV)
	if scale.Degenerate() {
		log.Printf("[MapRenderer] All %d values equal %g; markers use the midpoint colour", len(values), minV)
	}

	fig := NewFigure(opts.FigureSize.Width, opts.FigureSize.Height).
		SetExtent(vp).
		SetBaseLayer(mosaic)

	// 4. Markers
	for i, p := range points {
		fig.Scatter(Marker{
			Lon:      p.Lon,
			Lat:      p.Lat,
			Color:    colormap.WithAlpha(scale.Color(values[i]), MarkerAlpha),
			RadiusPt: MarkerRadiusPt,
		})
	}

	// 5. Overlays
	statsText := StatsText(len(points), minV, maxV, opts.ValueUnit)
	fig.SetTitle(TitleText(opts.Title, opts.ValueLabel)).
		SetColorbar(Colorbar{Scale: scale, Label: ColorbarLabel(opts.ValueLabel, opts.ValueUnit)}).
		AddTextBox(TextBox{Text: statsText, X: StatsBoxInset, Y: StatsBoxInset, FontSize: TextBoxFontSize})

	if a, ok := r.fetcher.(tiles.Attributor); ok && a.Attribution() != "" {
		fig.SetAttribution("Map tiles: " + a.Attribution())
	}

	summary := &models.RenderSummary{
		PointCount:  len(points),
		ValueField:  field,
		MinValue:    minV,
		MaxValue:    maxV,
		MeanValue:   stats.Mean(values),
		MedianValue: stats.Median(values),
		P95Value:    stats.Percentile(values, 95),
		Degenerate:  scale.Degenerate(),
		Viewport:    vp,
		RouteMeters: spatial.PathLength(coords),
		TileCount:   mosaic.Range.Count(),
		StatsText:   statsText,
	}

	log.Printf("[MapRenderer] Composed figure: %d markers, %d tiles, range %.1f-%.1f in %v",
		len(points), summary.TileCount, minV, maxV, time.Since(start))
	return fig, summary, nil
}

// TitleText is the two-line figure title
func TitleText(title, valueLabel string) string {
	return fmt.Sprintf("%s\n%s Measurements Along Route", title, valueLabel)
}

// ColorbarLabel names the colorbar, with the unit when one is given
func ColorbarLabel(valueLabel, valueUnit string) string {
	if valueUnit != "" {
		return fmt.Sprintf("%s (%s) - Red=High, Blue=Low", valueLabel, valueUnit)
	}
	return fmt.Sprintf("%s - Red=High, Blue=Low", valueLabel)
}

// StatsText is the content of the statistics box
func StatsText(count int, minV, maxV float64, unit string) string {
	text := fmt.Sprintf("Total Measurements: %d\nRange: %.1f - %.1f", count, minV, maxV)
	if unit != "" {
		text += " " + unit
	}
	return text
}

func validateOptions(opts models.RenderOptions) error {
	w, h := opts.FigureSize.Width, opts.FigureSize.Height
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return fmt.Errorf("%w: figure size must be positive, got %vx%v", ErrInput, w, h)
	}
	if opts.ZoomLevel < 0 || opts.ZoomLevel > spatial.MaxZoom {
		return fmt.Errorf("%w: zoom level %d outside 0..%d", ErrInput, opts.ZoomLevel, spatial.MaxZoom)
	}
	// Zero padding would give a single point a zero-area viewport
	if !(opts.PaddingMeters > 0) || math.IsInf(opts.PaddingMeters, 0) {
		return fmt.Errorf("%w: padding must be a positive number of meters, got %v", ErrInput, opts.PaddingMeters)
	}
	return nil
}

// finiteCoordinate rejects NaN and infinities only. Out-of-range degrees are
// drawn as given; tile rows are clamped to the mercator limit.
func finiteCoordinate(p models.MeasurementPoint) bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Lon, 0)
}
