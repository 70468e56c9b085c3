package artifact

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jengzang/measurement-map-go/internal/models"
	"github.com/jengzang/measurement-map-go/internal/render"
)

// squareFigure rasterises to a white canvas with a black square in it
type squareFigure struct {
	size, square int
	err          error
}

func (f squareFigure) Rasterize(dpi float64) (*image.RGBA, error) {
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, f.size, f.size))
	for y := 0; y < f.size; y++ {
		for x := 0; x < f.size; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	off := (f.size - f.square) / 2
	for y := off; y < off+f.square; y++ {
		for x := off; x < off+f.square; x++ {
			img.SetRGBA(x, y, color.RGBA{A: 255})
		}
	}
	return img, nil
}

func TestWriter_SavePNG(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "map.png")

	if err := NewWriter(&out).Save(squareFigure{size: 200, square: 40}, path, 100); err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}

	if got, want := out.String(), "Map saved as '"+path+"'!\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open saved file: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}

	// 40px content plus 0.1in (10px at 100 dpi) on each side
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 60 {
		t.Errorf("cropped bounds = %v, want 60x60", b)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0xffff {
		t.Errorf("padding pixel not white")
	}
	if r, _, _, _ := img.At(30, 30).RGBA(); r != 0 {
		t.Errorf("content pixel not black")
	}
}

func TestWriter_SaveFormats(t *testing.T) {
	dir := t.TempDir()
	fig := squareFigure{size: 64, square: 16}

	for _, name := range []string{"map.jpg", "map.JPEG", "map.gif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := NewWriter(nil).Save(fig, path, 50); err != nil {
				t.Fatalf("Save() error = %v, want nil", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if info.Size() == 0 {
				t.Error("saved file is empty")
			}
		})
	}
}

func TestWriter_SaveErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		fig  Figure
		path string
		want string
	}{
		{name: "unwritable path", fig: squareFigure{size: 10, square: 2}, path: filepath.Join(dir, "missing", "map.png")},
		{name: "unsupported format", fig: squareFigure{size: 10, square: 2}, path: filepath.Join(dir, "map.bmp"), want: "unsupported format"},
		{name: "rasterize failure", fig: squareFigure{err: errors.New("no extent")}, path: filepath.Join(dir, "map.png"), want: "no extent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := NewWriter(&out).Save(tt.fig, tt.path, 72)
			if !errors.Is(err, ErrPersistence) {
				t.Fatalf("Save() error = %v, want ErrPersistence", err)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Save() error = %q, want mention of %q", err, tt.want)
			}
			if out.Len() != 0 {
				t.Errorf("output = %q, want nothing on failure", out.String())
			}
		})
	}
}

func TestWriter_EncodeRenderedFigure(t *testing.T) {
	fig := render.NewFigure(3, 2).
		SetExtent(models.Viewport{MinLon: 10, MaxLon: 11, MinLat: 59, MaxLat: 60}).
		SetTitle("Test")

	var buf bytes.Buffer
	if err := NewWriter(nil).Encode(fig, &buf, "png", 40); err != nil {
		t.Fatalf("Encode() error = %v, want nil", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() > 120 || b.Dy() > 80 || b.Dx() == 0 {
		t.Errorf("encoded bounds = %v, want within 120x80", b)
	}
}

func TestCropToContent_AllWhite(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	if got := CropToContent(img, 2); got.Bounds() != img.Bounds() {
		t.Errorf("CropToContent(white) bounds = %v, want %v", got.Bounds(), img.Bounds())
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]string{"png": FormatPNG, "JPG": FormatJPEG, "jpeg": FormatJPEG, "gif": FormatGIF}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("tiff"); !errors.Is(err, ErrPersistence) {
		t.Errorf("ParseFormat(tiff) error = %v, want ErrPersistence", err)
	}
}
