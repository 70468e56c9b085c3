package tiles

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sm "github.com/flopp/go-staticmaps"
)

// DefaultURLTemplate is the CARTO Positron street-style basemap
const DefaultURLTemplate = "https://tiles.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png"

// DefaultUserAgent identifies tile requests
const DefaultUserAgent = "measurement-map-go/1.0 (+https://github.com/jengzang/measurement-map-go)"

// NewProvider builds a go-staticmaps tile provider from a {s}/{z}/{x}/{y} URL template
func NewProvider(name, urlTemplate, attribution string, shards ...string) *sm.TileProvider {
	pattern := strings.NewReplacer(
		"{s}", "%[1]s",
		"{z}", "%[2]d",
		"{x}", "%[3]d",
		"{y}", "%[4]d",
	).Replace(urlTemplate)

	return &sm.TileProvider{
		Name:        name,
		Attribution: attribution,
		TileSize:    TileSize,
		URLPattern:  pattern,
		Shards:      shards,
	}
}

// DefaultProvider returns the street-only CARTO light tiles
func DefaultProvider() *sm.TileProvider {
	return NewProvider("carto-light", DefaultURLTemplate, "Map data (c) OpenStreetMap contributors, (c) CARTO")
}

// HTTPFetcher downloads tiles through a go-staticmaps TileFetcher. The disk
// cache is kept here so that cached files are replaced atomically and
// cache hits can be reported to the Observer.
type HTTPFetcher struct {
	provider  *sm.TileProvider
	fetcher   *sm.TileFetcher
	cache     sm.TileCache
	userAgent string
	observer  Observer
}

// HTTPOption configures an HTTPFetcher
type HTTPOption func(*HTTPFetcher)

// WithCache stores fetched tiles under the cache root
func WithCache(cache sm.TileCache) HTTPOption {
	return func(f *HTTPFetcher) { f.cache = cache }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// WithObserver reports every fetch to o
func WithObserver(o Observer) HTTPOption {
	return func(f *HTTPFetcher) { f.observer = o }
}

// NewHTTPFetcher creates a fetcher for provider
func NewHTTPFetcher(provider *sm.TileProvider, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		provider:  provider,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.fetcher = sm.NewTileFetcher(provider, nil)
	f.fetcher.SetUserAgent(f.userAgent)
	return f
}

// Attribution returns the provider credit line
func (f *HTTPFetcher) Attribution() string {
	return f.provider.Attribution
}

// URL returns the request URL for a tile
func (f *HTTPFetcher) URL(zoom, x, y int) string {
	shard := ""
	if n := len(f.provider.Shards); n > 0 {
		shard = f.provider.Shards[(x+y)%n]
	}
	return fmt.Sprintf(f.provider.URLPattern, shard, zoom, x, y)
}

// FetchTile returns the cached tile when present, otherwise downloads it
func (f *HTTPFetcher) FetchTile(ctx context.Context, zoom, x, y int) (image.Image, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("%w: tile %d/%d/%d: %v", ErrTileFetch, zoom, x, y, err)
		f.observe(SourceNetwork, start, err)
		return nil, err
	}

	if f.cache != nil {
		if img, err := f.loadCached(zoom, x, y); err == nil {
			f.observe(SourceCache, start, nil)
			return img, nil
		}
	}

	img, err := f.download(ctx, zoom, x, y)
	if err != nil {
		f.observe(SourceNetwork, start, err)
		return nil, err
	}

	if f.cache != nil {
		if err := f.storeCached(zoom, x, y, img); err != nil {
			log.Printf("[TileFetcher] Warning: failed to cache tile %d/%d/%d: %v", zoom, x, y, err)
		}
	}

	f.observe(SourceNetwork, start, nil)
	return img, nil
}

// download runs the blocking TileFetcher call and gives up when ctx ends.
// An abandoned request finishes in the background and its result is dropped.
func (f *HTTPFetcher) download(ctx context.Context, zoom, x, y int) (image.Image, error) {
	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := f.fetcher.Fetch(zoom, x, y)
		done <- result{img: img, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: GET %s: %v", ErrTileFetch, f.URL(zoom, x, y), r.err)
		}
		if r.img == nil {
			return nil, fmt.Errorf("%w: GET %s: empty tile", ErrTileFetch, f.URL(zoom, x, y))
		}
		return r.img, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: GET %s: %v", ErrTileFetch, f.URL(zoom, x, y), ctx.Err())
	}
}

func (f *HTTPFetcher) cachePath(zoom, x, y int) string {
	return filepath.Join(f.cache.Path(), f.provider.Name, strconv.Itoa(zoom), strconv.Itoa(x), strconv.Itoa(y))
}

func (f *HTTPFetcher) loadCached(zoom, x, y int) (image.Image, error) {
	file, err := os.Open(f.cachePath(zoom, x, y))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}

// storeCached writes through a temp file so concurrent renders never read a partial tile
func (f *HTTPFetcher) storeCached(zoom, x, y int, img image.Image) error {
	path := f.cachePath(zoom, x, y)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, f.cache.Perm()); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tile-*")
	if err != nil {
		return err
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (f *HTTPFetcher) observe(source string, start time.Time, err error) {
	if f.observer != nil {
		f.observer.TileFetched(source, time.Since(start), err)
	}
}
