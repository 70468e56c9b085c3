package spatial

import (
	"math"

	"github.com/jengzang/measurement-map-go/internal/models"
)

// MaxZoom is the deepest zoom level accepted for tile requests
const MaxZoom = 20

// MaxMercatorLat is where the web-mercator projection is clipped
const MaxMercatorLat = 85.05112878

// TileX returns the fractional tile column of lon at zoom
func TileX(lon float64, zoom int) float64 {
	n := math.Exp2(float64(zoom))
	return (lon + 180.0) / 360.0 * n
}

// TileY returns the fractional tile row of lat at zoom
func TileY(lat float64, zoom int) float64 {
	lat = math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, lat))
	n := math.Exp2(float64(zoom))
	latRad := lat * math.Pi / 180
	return (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n
}

// TileRange is the inclusive block of tile indices covering a viewport
type TileRange struct {
	Zoom       int
	MinX, MaxX int
	MinY, MaxY int
}

// Count returns the number of tiles in the range
func (r TileRange) Count() int {
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// Columns returns the number of tile columns
func (r TileRange) Columns() int { return r.MaxX - r.MinX + 1 }

// Rows returns the number of tile rows
func (r TileRange) Rows() int { return r.MaxY - r.MinY + 1 }

// CoveringTiles returns the tiles needed to draw vp at zoom.
// Indices are clamped to the valid range for the zoom level.
func CoveringTiles(vp models.Viewport, zoom int) TileRange {
	last := int(math.Exp2(float64(zoom))) - 1
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		if v > last {
			return last
		}
		return v
	}

	return TileRange{
		Zoom: zoom,
		MinX: clamp(int(math.Floor(TileX(vp.MinLon, zoom)))),
		MaxX: clamp(int(math.Floor(TileX(vp.MaxLon, zoom)))),
		// Tile rows grow southward
		MinY: clamp(int(math.Floor(TileY(vp.MaxLat, zoom)))),
		MaxY: clamp(int(math.Floor(TileY(vp.MinLat, zoom)))),
	}
}
