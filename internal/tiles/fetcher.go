// Package tiles fetches slippy-map tiles and assembles them into a grayscale base layer.
package tiles

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	// ErrTileFetch wraps every failure to retrieve or decode a tile
	ErrTileFetch = errors.New("tile fetch failed")
	// ErrTooManyTiles is returned when a viewport needs more tiles than allowed
	ErrTooManyTiles = errors.New("too many tiles")
)

// Fetcher retrieves one tile image
type Fetcher interface {
	FetchTile(ctx context.Context, zoom, x, y int) (image.Image, error)
}

// Attributor is implemented by fetchers whose imagery needs a credit line
type Attributor interface {
	Attribution() string
}

// Observer receives one callback per tile request
type Observer interface {
	TileFetched(source string, elapsed time.Duration, err error)
}

// Tile sources reported to an Observer
const (
	SourceCache   = "cache"
	SourceNetwork = "network"
)

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, zoom, x, y int) (image.Image, error)

// FetchTile calls f
func (f FetcherFunc) FetchTile(ctx context.Context, zoom, x, y int) (image.Image, error) {
	return f(ctx, zoom, x, y)
}
