package tiles

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	xdraw "golang.org/x/image/draw"

	"github.com/jengzang/measurement-map-go/internal/models"
	"github.com/jengzang/measurement-map-go/internal/spatial"
)

// TileSize is the edge length of a slippy-map tile in pixels
const TileSize = 256

// DefaultMaxTiles bounds how many tiles a single render may request
const DefaultMaxTiles = 256

var tracer = otel.Tracer("github.com/jengzang/measurement-map-go/internal/tiles")

// Mosaic is a grayscale image stitched from a block of tiles
type Mosaic struct {
	Image *image.Gray
	Range spatial.TileRange
}

// BuildMosaic fetches every tile covering vp at zoom, row by row, and
// composites them into one grayscale image. The first failing tile aborts
// the build.
func BuildMosaic(ctx context.Context, f Fetcher, vp models.Viewport, zoom, maxTiles int) (*Mosaic, error) {
	if maxTiles <= 0 {
		maxTiles = DefaultMaxTiles
	}

	r := spatial.CoveringTiles(vp, zoom)
	if r.Count() > maxTiles {
		return nil, fmt.Errorf("%w: viewport needs %d tiles at zoom %d (limit %d)", ErrTooManyTiles, r.Count(), zoom, maxTiles)
	}

	ctx, span := tracer.Start(ctx, "tiles.BuildMosaic")
	defer span.End()
	span.SetAttributes(
		attribute.Int("tiles.zoom", zoom),
		attribute.Int("tiles.count", r.Count()),
	)

	canvas := image.NewGray(image.Rect(0, 0, r.Columns()*TileSize, r.Rows()*TileSize))
	fill(canvas, color.Gray{Y: 255})

	for ty := r.MinY; ty <= r.MaxY; ty++ {
		for tx := r.MinX; tx <= r.MaxX; tx++ {
			tile, err := f.FetchTile(ctx, zoom, tx, ty)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "tile fetch failed")
				if !errors.Is(err, ErrTileFetch) {
					err = fmt.Errorf("%w: %w", ErrTileFetch, err)
				}
				return nil, fmt.Errorf("tile %d/%d/%d: %w", zoom, tx, ty, err)
			}

			ox := (tx - r.MinX) * TileSize
			oy := (ty - r.MinY) * TileSize
			dst := image.Rect(ox, oy, ox+TileSize, oy+TileSize)
			if tile.Bounds().Dx() == TileSize && tile.Bounds().Dy() == TileSize {
				xdraw.Draw(canvas, dst, tile, tile.Bounds().Min, xdraw.Over)
			} else {
				// Retina or odd-sized tiles are scaled into the slot
				xdraw.ApproxBiLinear.Scale(canvas, dst, tile, tile.Bounds(), xdraw.Over, nil)
			}
		}
	}

	log.Printf("[TileMosaic] Composited %d tiles (%dx%d) at zoom %d", r.Count(), r.Columns(), r.Rows(), zoom)
	return &Mosaic{Image: canvas, Range: r}, nil
}

// PixelX returns the mosaic column of lon
func (m *Mosaic) PixelX(lon float64) float64 {
	return (spatial.TileX(lon, m.Range.Zoom) - float64(m.Range.MinX)) * TileSize
}

// PixelY returns the mosaic row of lat
func (m *Mosaic) PixelY(lat float64) float64 {
	return (spatial.TileY(lat, m.Range.Zoom) - float64(m.Range.MinY)) * TileSize
}

// Sample returns the nearest mosaic pixel to (lon, lat). Points off the
// mosaic are white.
func (m *Mosaic) Sample(lon, lat float64) color.Gray {
	return m.at(m.PixelX(lon), m.PixelY(lat))
}

func (m *Mosaic) at(px, py float64) color.Gray {
	x, y := int(math.Floor(px)), int(math.Floor(py))
	if !(image.Point{X: x, Y: y}).In(m.Image.Bounds()) {
		return color.Gray{Y: 255}
	}
	return m.Image.GrayAt(x, y)
}

// Resample draws the mosaic into an equirectangular w x h grayscale image
// spanning vp. Columns and rows are projected independently.
func (m *Mosaic) Resample(vp models.Viewport, w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return out
	}

	lonSpan, latSpan := spatial.Span(vp)
	cols := make([]float64, w)
	for i := range cols {
		cols[i] = m.PixelX(vp.MinLon + (float64(i)+0.5)/float64(w)*lonSpan)
	}

	for j := 0; j < h; j++ {
		py := m.PixelY(vp.MaxLat - (float64(j)+0.5)/float64(h)*latSpan)
		for i := 0; i < w; i++ {
			out.SetGray(i, j, m.at(cols[i], py))
		}
	}
	return out
}

func fill(img *image.Gray, c color.Gray) {
	for i := range img.Pix {
		img.Pix[i] = c.Y
	}
}
