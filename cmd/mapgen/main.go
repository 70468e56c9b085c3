package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sm "github.com/flopp/go-staticmaps"

	"github.com/jengzang/measurement-map-go/internal/artifact"
	"github.com/jengzang/measurement-map-go/internal/config"
	"github.com/jengzang/measurement-map-go/internal/dataset"
	"github.com/jengzang/measurement-map-go/internal/logging"
	"github.com/jengzang/measurement-map-go/internal/models"
	"github.com/jengzang/measurement-map-go/internal/render"
	"github.com/jengzang/measurement-map-go/internal/tiles"
)

var version = "dev"
var appName = "mapgen"

func main() {
	input := flag.String("input", "", "measurement file (.yaml, .yml or .json); the Oslo example route when empty")
	out := flag.String("out", "measurement_map.png", "output image (.png, .jpg or .gif)")
	title := flag.String("title", "Oslo Walking Route", "map title")
	label := flag.String("label", "Latency", "value label shown in the title and colorbar")
	unit := flag.String("unit", "ms", "value unit")
	field := flag.String("field", "", "record field to plot; derived from -label when empty")
	width := flag.Float64("width", models.DefaultFigureWidth, "figure width in inches")
	height := flag.Float64("height", models.DefaultFigureHeight, "figure height in inches")
	zoom := flag.Int("zoom", models.DefaultZoomLevel, "tile zoom level (0-20)")
	padding := flag.Float64("padding", models.DefaultPaddingMeters, "padding around the route in meters")
	dpi := flag.Float64("dpi", artifact.DefaultDPI, "output resolution")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(cfg, version, appName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	points, err := loadPoints(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load points: %v\n", err)
		os.Exit(1)
	}

	opts := models.RenderOptions{
		Title:         *title,
		ValueLabel:    *label,
		ValueUnit:     *unit,
		ValueField:    *field,
		FigureSize:    models.FigureSize{Width: *width, Height: *height},
		ZoomLevel:     *zoom,
		PaddingMeters: *padding,
	}

	if err := run(ctx, cfg, points, opts, *out, *dpi); err != nil {
		slog.Error("render failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, points []models.MeasurementPoint, opts models.RenderOptions, out string, dpi float64) error {
	provider := tiles.DefaultProvider()
	if cfg.TileURL != "" {
		provider = tiles.NewProvider("custom", cfg.TileURL, "")
	}
	var fetchOpts []tiles.HTTPOption
	if cfg.TileCacheDir != "" {
		fetchOpts = append(fetchOpts, tiles.WithCache(sm.NewTileCache(cfg.TileCacheDir, 0o755)))
	}
	if cfg.TileUserAgent != "" {
		fetchOpts = append(fetchOpts, tiles.WithUserAgent(cfg.TileUserAgent))
	}

	renderer := render.NewRenderer(tiles.NewHTTPFetcher(provider, fetchOpts...), render.WithMaxTiles(cfg.MaxTiles))
	fig, summary, err := renderer.Render(ctx, points, opts)
	if err != nil {
		return err
	}
	slog.Info("figure composed",
		"points", summary.PointCount,
		"field", summary.ValueField,
		"tiles", summary.TileCount,
		"route_m", summary.RouteMeters,
	)

	return artifact.NewWriter(os.Stdout).Save(fig, out, dpi)
}

func loadPoints(path string) ([]models.MeasurementPoint, error) {
	if path == "" {
		return dataset.OsloRoute(), nil
	}
	return dataset.LoadPoints(path)
}
