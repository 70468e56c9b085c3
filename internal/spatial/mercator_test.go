package spatial

import (
	"math"
	"testing"

	"github.com/jengzang/measurement-map-go/internal/models"
)

func TestTileXY_KnownValues(t *testing.T) {
	if got := TileX(-180, 0); got != 0 {
		t.Errorf("TileX(-180, 0) = %v, want 0", got)
	}
	if got := TileX(0, 1); got != 1 {
		t.Errorf("TileX(0, 1) = %v, want 1", got)
	}
	if got := TileY(0, 1); math.Abs(got-1) > 1e-9 {
		t.Errorf("TileY(0, 1) = %v, want 1", got)
	}
	if got := TileY(90, 3); got < 0 {
		t.Errorf("TileY(90, 3) = %v, want clipped to >= 0", got)
	}
}

func TestCoveringTiles_Oslo(t *testing.T) {
	vp := models.Viewport{MinLon: 10.7468, MaxLon: 10.7524, MinLat: 59.9113, MaxLat: 59.9167}
	r := CoveringTiles(vp, 18)

	if r.MinX > r.MaxX || r.MinY > r.MaxY {
		t.Fatalf("CoveringTiles() = %+v, want ordered range", r)
	}
	if r.MinX != int(TileX(vp.MinLon, 18)) || r.MaxY != int(TileY(vp.MinLat, 18)) {
		t.Errorf("CoveringTiles() = %+v, inconsistent with TileX/TileY", r)
	}
	if r.Count() != r.Columns()*r.Rows() || r.Count() < 1 || r.Count() > 100 {
		t.Errorf("Count() = %d, want a small positive tile count", r.Count())
	}
}

func TestCoveringTiles_ClampedAtWorldEdge(t *testing.T) {
	vp := models.Viewport{MinLon: -200, MaxLon: 200, MinLat: -89, MaxLat: 89}
	r := CoveringTiles(vp, 2)
	if r.MinX != 0 || r.MaxX != 3 || r.MinY != 0 || r.MaxY != 3 {
		t.Errorf("CoveringTiles() = %+v, want 0..3 x 0..3", r)
	}
	if r.Count() != 16 {
		t.Errorf("Count() = %d, want 16", r.Count())
	}
}
