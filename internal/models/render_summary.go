package models

// Viewport is the displayed geographic extent in decimal degrees
type Viewport struct {
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
}

// RenderSummary describes what a render drew
type RenderSummary struct {
	PointCount  int      `json:"point_count"`
	ValueField  string   `json:"value_field"`
	MinValue    float64  `json:"min_value"`
	MaxValue    float64  `json:"max_value"`
	MeanValue   float64  `json:"mean_value"`
	MedianValue float64  `json:"median_value"`
	P95Value    float64  `json:"p95_value"`
	Degenerate  bool     `json:"degenerate"` // all values equal
	Viewport    Viewport `json:"viewport"`
	RouteMeters float64  `json:"route_meters"` // Haversine length in record order
	TileCount   int      `json:"tile_count"`
	StatsText   string   `json:"stats_text"`
}
