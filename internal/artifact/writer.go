// Package artifact persists rendered figures as image files.
package artifact

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/jengzang/measurement-map-go/internal/render"
)

// ErrPersistence wraps every failure to write an artifact
var ErrPersistence = errors.New("persist artifact")

// DefaultDPI is used when Save or Encode receive a non-positive dpi
const DefaultDPI = 300.0

// CropPadInches is the white margin kept around the tight content box
const CropPadInches = 0.1

// JPEGQuality for .jpg and .jpeg output
const JPEGQuality = 95

// Output formats
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatGIF  = "gif"
)

// ContentType returns the MIME type of an output format
func ContentType(format string) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	default:
		return "image/png"
	}
}

// Figure is what a Writer can rasterise
type Figure interface {
	Rasterize(dpi float64) (*image.RGBA, error)
}

var _ Figure = (*render.Figure)(nil)

// Writer saves figures and reports each saved path to out
type Writer struct {
	out io.Writer
}

// NewWriter creates a writer. A nil out discards the confirmation line.
func NewWriter(out io.Writer) *Writer {
	if out == nil {
		out = io.Discard
	}
	return &Writer{out: out}
}

// FormatOf maps a file extension to an output format
func FormatOf(path string) (string, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseFormat normalises a format name such as "jpg" or "PNG"
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(name) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", ErrPersistence, name)
	}
}

// Save rasterises fig at dpi, crops it to its content and writes it to path
// in the format named by the extension.
func (w *Writer) Save(fig Figure, path string, dpi float64) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	img, err := Prepare(fig, dpi)
	if err != nil {
		return err
	}

	if format == FormatPNG {
		if err := gg.SavePNG(path, img); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if err := encode(f, img, format); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	fmt.Fprintf(w.out, "Map saved as '%s'!\n", path)
	return nil
}

// Encode rasterises fig and streams it to dst in format
func (w *Writer) Encode(fig Figure, dst io.Writer, format string, dpi float64) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}
	img, err := Prepare(fig, dpi)
	if err != nil {
		return err
	}
	return encode(dst, img, format)
}

// Prepare rasterises fig at dpi and crops it to its content
func Prepare(fig Figure, dpi float64) (image.Image, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	img, err := fig.Rasterize(dpi)
	if err != nil {
		return nil, fmt.Errorf("%w: rasterize: %v", ErrPersistence, err)
	}
	pad := int(math.Round(CropPadInches * dpi))
	return CropToContent(img, pad), nil
}

func encode(dst io.Writer, img image.Image, format string) error {
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(dst, img)
	case FormatJPEG:
		err = jpeg.Encode(dst, img, &jpeg.Options{Quality: JPEGQuality})
	case FormatGIF:
		err = gif.Encode(dst, img, nil)
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrPersistence, format)
	}
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersistence, format, err)
	}
	return nil
}

// CropToContent trims white margins, keeping pad pixels of white around
// the non-white content. An all-white image is returned unchanged.
func CropToContent(img *image.RGBA, pad int) image.Image {
	content, ok := contentBounds(img)
	if !ok {
		return img
	}

	out := image.NewRGBA(image.Rect(0, 0, content.Dx()+2*pad, content.Dy()+2*pad))
	xdraw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.Draw(out, content.Sub(content.Min).Add(image.Pt(pad, pad)), img, content.Min, xdraw.Src)
	return out
}

func contentBounds(img *image.RGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			p := img.Pix[i : i+4 : i+4]
			if p[0] == 0xff && p[1] == 0xff && p[2] == 0xff {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
