package models

import "testing"

func TestRenderOptions_WithDefaults(t *testing.T) {
	tests := []struct {
		name        string
		in          RenderOptions
		wantPadding float64
		wantZoom    int
		wantTitle   string
	}{
		{name: "empty", in: RenderOptions{}, wantPadding: DefaultPaddingMeters, wantZoom: DefaultZoomLevel, wantTitle: DefaultTitle},
		{name: "zero padding", in: RenderOptions{PaddingMeters: 0, ZoomLevel: 15}, wantPadding: DefaultPaddingMeters, wantZoom: 15, wantTitle: DefaultTitle},
		{name: "explicit padding", in: RenderOptions{PaddingMeters: 5, Title: "Route"}, wantPadding: 5, wantZoom: DefaultZoomLevel, wantTitle: "Route"},
		{name: "negative padding kept", in: RenderOptions{PaddingMeters: -3}, wantPadding: -3, wantZoom: DefaultZoomLevel, wantTitle: DefaultTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.WithDefaults()
			if got.PaddingMeters != tt.wantPadding {
				t.Errorf("PaddingMeters = %v, want %v", got.PaddingMeters, tt.wantPadding)
			}
			if got.ZoomLevel != tt.wantZoom {
				t.Errorf("ZoomLevel = %d, want %d", got.ZoomLevel, tt.wantZoom)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.FigureSize.Width != DefaultFigureWidth || got.FigureSize.Height != DefaultFigureHeight {
				t.Errorf("FigureSize = %+v, want %vx%v", got.FigureSize, DefaultFigureWidth, DefaultFigureHeight)
			}
		})
	}
}
