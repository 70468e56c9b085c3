package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/jengzang/measurement-map-go/internal/colormap"
	"github.com/jengzang/measurement-map-go/internal/models"
	"github.com/jengzang/measurement-map-go/internal/spatial"
)

// Typography and layout, in points
const (
	TitleFontSize         = 18.0
	ColorbarLabelFontSize = 12.0
	TickFontSize          = 10.0
	TextBoxFontSize       = 10.0
	AttributionFontSize   = 6.0

	titlePad      = 20.0
	outerMargin   = 12.0
	colorbarPad   = 18.0
	tickLength    = 3.5
	frameWidth    = 0.8
	textBoxEdge   = 0.5
	textBoxAlpha  = 0.9
	colorbarShare = 0.8
	colorbarRatio = 20.0
)

// maxCanvasPixels caps Rasterize output at roughly 20000x20000
const maxCanvasPixels = 400_000_000

// BaseLayer is the background image sampled into the map area
type BaseLayer interface {
	Resample(vp models.Viewport, w, h int) *image.Gray
}

// Marker is one filled circle in geographic coordinates
type Marker struct {
	Lon, Lat float64
	Color    color.NRGBA
	RadiusPt float64
}

// Colorbar is a horizontal legend for a ValueScale
type Colorbar struct {
	Scale *colormap.ValueScale
	Label string
}

// TextBox is a boxed multi-line annotation anchored at its lower-left
// corner, in fractions of the map area.
type TextBox struct {
	Text     string
	X, Y     float64
	FontSize float64
}

// Figure collects drawing primitives and rasterises them on demand.
// A Figure is built by one goroutine and is not safe for concurrent mutation.
type Figure struct {
	width, height float64 // inches

	extent      *models.Viewport
	base        BaseLayer
	markers     []Marker
	title       string
	colorbar    *Colorbar
	textBoxes   []TextBox
	attribution string
}

// NewFigure creates an empty figure of w x h inches
func NewFigure(w, h float64) *Figure {
	return &Figure{width: w, height: h}
}

// Size returns the figure size in inches
func (f *Figure) Size() (w, h float64) { return f.width, f.height }

// SetExtent sets the geographic extent of the map area
func (f *Figure) SetExtent(vp models.Viewport) *Figure {
	f.extent = &vp
	return f
}

// Extent returns the map extent and whether one was set
func (f *Figure) Extent() (models.Viewport, bool) {
	if f.extent == nil {
		return models.Viewport{}, false
	}
	return *f.extent, true
}

// SetBaseLayer sets the background drawn beneath everything else
func (f *Figure) SetBaseLayer(b BaseLayer) *Figure {
	f.base = b
	return f
}

// Scatter appends markers, drawn in order above the base layer
func (f *Figure) Scatter(markers ...Marker) *Figure {
	f.markers = append(f.markers, markers...)
	return f
}

// Markers returns the markers in draw order
func (f *Figure) Markers() []Marker { return f.markers }

// SetTitle sets the bold title drawn above the map area
func (f *Figure) SetTitle(title string) *Figure {
	f.title = title
	return f
}

// Title returns the figure title
func (f *Figure) Title() string { return f.title }

// SetColorbar attaches a horizontal colorbar below the map area
func (f *Figure) SetColorbar(cb Colorbar) *Figure {
	f.colorbar = &cb
	return f
}

// Colorbar returns the colorbar, or nil when none was set
func (f *Figure) Colorbar() *Colorbar { return f.colorbar }

// AddTextBox appends a boxed annotation anchored in map-area fractions
func (f *Figure) AddTextBox(tb TextBox) *Figure {
	f.textBoxes = append(f.textBoxes, tb)
	return f
}

// TextBoxes returns the text boxes in draw order
func (f *Figure) TextBoxes() []TextBox { return f.textBoxes }

// SetAttribution sets the small credit line in the lower right corner
func (f *Figure) SetAttribution(text string) *Figure {
	f.attribution = text
	return f
}

// Attribution returns the credit line, empty when none was set
func (f *Figure) Attribution() string { return f.attribution }

// layout holds pixel geometry computed for one Rasterize call
type layout struct {
	dpi  float64
	w, h int

	mapX, mapY float64
	mapW, mapH float64

	cbX, cbY float64
	cbW, cbH float64

	titleY              float64
	titleLineHeight     float64
	tickLabelLineHeight float64
	colorbarLabelOffset float64
}

func (l layout) px(pt float64) float64 { return pt * l.dpi / 72 }

// Rasterize draws the figure at dpi onto a white canvas of
// width*dpi x height*dpi pixels.
func (f *Figure) Rasterize(dpi float64) (*image.RGBA, error) {
	if dpi <= 0 || math.IsNaN(dpi) || math.IsInf(dpi, 0) {
		return nil, fmt.Errorf("invalid dpi %v", dpi)
	}
	if f.width <= 0 || f.height <= 0 {
		return nil, fmt.Errorf("invalid figure size %vx%v", f.width, f.height)
	}
	if f.extent == nil {
		return nil, errors.New("figure has no extent")
	}
	w := int(math.Round(f.width * dpi))
	h := int(math.Round(f.height * dpi))
	if w < 1 || h < 1 || float64(w)*float64(h) > maxCanvasPixels {
		return nil, fmt.Errorf("canvas %dx%d out of range", w, h)
	}

	faces, err := newFaceSet(dpi)
	if err != nil {
		return nil, err
	}
	defer faces.Close()

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	l := f.layout(dc, faces, dpi, w, h)

	f.drawBase(dc, l)
	f.drawFrame(dc, l)
	f.drawTitle(dc, l, faces)
	f.drawColorbar(dc, l, faces)
	if err := f.drawTextBoxes(dc, l, faces); err != nil {
		return nil, err
	}
	f.drawAttribution(dc, l, faces)
	f.drawMarkers(dc, l)

	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, errors.New("unexpected canvas type")
	}
	return img, nil
}

func (f *Figure) layout(dc *gg.Context, faces *faceSet, dpi float64, w, h int) layout {
	l := layout{dpi: dpi, w: w, h: h}

	top := l.px(outerMargin)
	if f.title != "" {
		dc.SetFontFace(faces.title)
		l.titleLineHeight = dc.FontHeight() * 1.25
		l.titleY = top
		top += l.titleLineHeight*float64(len(strings.Split(f.title, "\n"))) + l.px(titlePad)
	}

	// Vertical space below the map that does not scale with map width
	fixedBelow := l.px(outerMargin)
	if f.colorbar != nil {
		dc.SetFontFace(faces.tick)
		l.tickLabelLineHeight = dc.FontHeight() * 1.4
		dc.SetFontFace(faces.cbLabel)
		cbLabelHeight := dc.FontHeight() * 1.5
		l.colorbarLabelOffset = l.px(tickLength) + l.tickLabelLineHeight
		fixedBelow += l.px(colorbarPad) + l.colorbarLabelOffset + cbLabelHeight
	}

	availW := float64(w) - 2*l.px(outerMargin)
	availH := float64(h) - top - fixedBelow
	if availW < 1 {
		availW = 1
	}
	if availH < 1 {
		availH = 1
	}

	lonSpan, latSpan := spatial.Span(*f.extent)
	aspect := 1.0
	if lonSpan > 0 && latSpan > 0 {
		aspect = lonSpan / latSpan
	}

	// The bar thickness scales with map width: mapH + barShare*mapW <= availH
	barShare := 0.0
	if f.colorbar != nil {
		barShare = colorbarShare / colorbarRatio
	}
	l.mapW = math.Min(availW, availH/(1/aspect+barShare))
	l.mapH = l.mapW / aspect
	l.mapX = (float64(w) - l.mapW) / 2
	l.mapY = top

	if f.colorbar != nil {
		l.cbW = l.mapW * colorbarShare
		l.cbH = l.cbW / colorbarRatio
		l.cbX = l.mapX + (l.mapW-l.cbW)/2
		l.cbY = l.mapY + l.mapH + l.px(colorbarPad)
	}
	return l
}

// project maps lon/lat into canvas pixels inside the map area
func (f *Figure) project(l layout, lon, lat float64) (float64, float64) {
	vp := *f.extent
	lonSpan, latSpan := spatial.Span(vp)
	x, y := l.mapX+l.mapW/2, l.mapY+l.mapH/2
	if lonSpan > 0 {
		x = l.mapX + (lon-vp.MinLon)/lonSpan*l.mapW
	}
	if latSpan > 0 {
		y = l.mapY + (vp.MaxLat-lat)/latSpan*l.mapH
	}
	return x, y
}

func (f *Figure) drawBase(dc *gg.Context, l layout) {
	if f.base == nil {
		return
	}
	w, h := int(math.Round(l.mapW)), int(math.Round(l.mapH))
	if w < 1 || h < 1 {
		return
	}
	img := f.base.Resample(*f.extent, w, h)
	dc.DrawImage(img, int(math.Round(l.mapX)), int(math.Round(l.mapY)))
}

func (f *Figure) drawFrame(dc *gg.Context, l layout) {
	dc.SetColor(color.Black)
	dc.SetLineWidth(l.px(frameWidth))
	dc.DrawRectangle(l.mapX, l.mapY, l.mapW, l.mapH)
	dc.Stroke()
}

func (f *Figure) drawTitle(dc *gg.Context, l layout, faces *faceSet) {
	if f.title == "" {
		return
	}
	dc.SetFontFace(faces.title)
	dc.SetColor(color.Black)
	cx := l.mapX + l.mapW/2
	for i, line := range strings.Split(f.title, "\n") {
		dc.DrawStringAnchored(line, cx, l.titleY+float64(i)*l.titleLineHeight, 0.5, 1)
	}
}

func (f *Figure) drawColorbar(dc *gg.Context, l layout, faces *faceSet) {
	cb := f.colorbar
	if cb == nil || cb.Scale == nil || l.cbW < 1 {
		return
	}
	scale := cb.Scale

	// Gradient, one column per pixel
	cols := int(math.Ceil(l.cbW))
	for i := 0; i < cols; i++ {
		c := scale.Colors.Midpoint()
		if !scale.Degenerate() {
			t := 0.0
			if cols > 1 {
				t = float64(i) / float64(cols-1)
			}
			c = scale.Colors.At(t)
		}
		dc.SetColor(c)
		dc.DrawRectangle(l.cbX+float64(i), l.cbY, 1, l.cbH)
		dc.Fill()
	}

	dc.SetColor(color.Black)
	dc.SetLineWidth(l.px(frameWidth))
	dc.DrawRectangle(l.cbX, l.cbY, l.cbW, l.cbH)
	dc.Stroke()

	// Ticks
	dc.SetFontFace(faces.tick)
	tickTop := l.cbY + l.cbH
	if scale.Degenerate() {
		x := l.cbX + l.cbW/2
		f.drawTick(dc, l, x, tickTop, formatTick(scale.Min, 0.1))
	} else {
		ticks := niceTicks(scale.Min, scale.Max, 5)
		step := scale.Max - scale.Min
		if len(ticks) > 1 {
			step = ticks[1] - ticks[0]
		}
		for _, v := range ticks {
			x := l.cbX + (v-scale.Min)/(scale.Max-scale.Min)*l.cbW
			f.drawTick(dc, l, x, tickTop, formatTick(v, step))
		}
	}

	if cb.Label != "" {
		dc.SetFontFace(faces.cbLabel)
		dc.DrawStringAnchored(cb.Label, l.cbX+l.cbW/2, tickTop+l.colorbarLabelOffset, 0.5, 1)
	}
}

func (f *Figure) drawTick(dc *gg.Context, l layout, x, top float64, label string) {
	dc.SetLineWidth(l.px(frameWidth))
	dc.DrawLine(x, top, x, top+l.px(tickLength))
	dc.Stroke()
	dc.DrawStringAnchored(label, x, top+l.px(tickLength)+l.px(2), 0.5, 1)
}

func (f *Figure) drawTextBoxes(dc *gg.Context, l layout, faces *faceSet) error {
	for _, tb := range f.textBoxes {
		var custom font.Face
		if math.IsInf(tb.FontSize, 0) || math.IsNaN(tb.FontSize) {
			return fmt.Errorf("text box font size %v", tb.FontSize)
		}
		if tb.FontSize > 0 && tb.FontSize != TextBoxFontSize {
			face, err := newFace(false, tb.FontSize, l.dpi)
			if err != nil {
				return fmt.Errorf("load %vpt text box face: %w", tb.FontSize, err)
			}
			custom = face
		}
		if custom != nil {
			dc.SetFontFace(custom)
		} else {
			dc.SetFontFace(faces.text)
		}

		lines := strings.Split(tb.Text, "\n")
		lineH := dc.FontHeight() * 1.2
		var textW float64
		for _, line := range lines {
			if w, _ := dc.MeasureString(line); w > textW {
				textW = w
			}
		}
		pad := l.px(TextBoxFontSize) * 0.5
		boxW := textW + 2*pad
		boxH := lineH*float64(len(lines)) + 2*pad

		x := l.mapX + tb.X*l.mapW
		y := l.mapY + l.mapH - tb.Y*l.mapH - boxH

		dc.DrawRoundedRectangle(x, y, boxW, boxH, pad)
		dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(textBoxAlpha * 255))})
		dc.FillPreserve()
		dc.SetColor(color.Black)
		dc.SetLineWidth(l.px(textBoxEdge))
		dc.Stroke()

		for i, line := range lines {
			dc.DrawStringAnchored(line, x+pad, y+pad+float64(i)*lineH, 0, 1)
		}
		if custom != nil {
			custom.Close()
		}
	}
	return nil
}

func (f *Figure) drawAttribution(dc *gg.Context, l layout, faces *faceSet) {
	if f.attribution == "" {
		return
	}
	dc.SetFontFace(faces.attribution)
	dc.SetColor(color.NRGBA{R: 80, G: 80, B: 80, A: 255})
	inset := l.px(3)
	dc.DrawStringAnchored(f.attribution, l.mapX+l.mapW-inset, l.mapY+l.mapH-inset, 1, 0)
}

func (f *Figure) drawMarkers(dc *gg.Context, l layout) {
	if len(f.markers) == 0 {
		return
	}
	dc.Push()
	defer dc.Pop()
	dc.DrawRectangle(l.mapX, l.mapY, l.mapW, l.mapH)
	dc.Clip()

	for _, m := range f.markers {
		x, y := f.project(l, m.Lon, m.Lat)
		dc.DrawCircle(x, y, l.px(m.RadiusPt))
		dc.SetColor(m.Color)
		dc.Fill()
	}
}

// faceSet holds the faces one Rasterize call needs
type faceSet struct {
	title, cbLabel, tick, text, attribution font.Face
}

func newFaceSet(dpi float64) (*faceSet, error) {
	var fs faceSet
	specs := []struct {
		dst  *font.Face
		bold bool
		size float64
	}{
		{&fs.title, true, TitleFontSize},
		{&fs.cbLabel, true, ColorbarLabelFontSize},
		{&fs.tick, false, TickFontSize},
		{&fs.text, false, TextBoxFontSize},
		{&fs.attribution, false, AttributionFontSize},
	}
	for _, s := range specs {
		face, err := newFace(s.bold, s.size, dpi)
		if err != nil {
			fs.Close()
			return nil, fmt.Errorf("load font face: %w", err)
		}
		*s.dst = face
	}
	return &fs, nil
}

func (fs *faceSet) Close() {
	for _, f := range []font.Face{fs.title, fs.cbLabel, fs.tick, fs.text, fs.attribution} {
		if f != nil {
			f.Close()
		}
	}
}
