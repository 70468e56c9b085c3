package models

import "time"

// RenderJob is the persisted record of one saved map
type RenderJob struct {
	ID string `json:"id" db:"id"`

	// Request
	Title         string  `json:"title" db:"title"`
	ValueLabel    string  `json:"value_label" db:"value_label"`
	ValueUnit     string  `json:"value_unit,omitempty" db:"value_unit"`
	ValueField    string  `json:"value_field" db:"value_field"`
	ZoomLevel     int     `json:"zoom_level" db:"zoom_level"`
	PaddingMeters float64 `json:"padding_meters" db:"padding_meters"`
	DPI           float64 `json:"dpi" db:"dpi"`
	Format        string  `json:"format" db:"format"`

	// Status
	Status       string `json:"status" db:"status"` // pending, running, completed, failed
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	// Results
	PointCount  int     `json:"point_count" db:"point_count"`
	MinValue    float64 `json:"min_value" db:"min_value"`
	MaxValue    float64 `json:"max_value" db:"max_value"`
	RouteMeters float64 `json:"route_meters" db:"route_meters"`
	TileCount   int     `json:"tile_count" db:"tile_count"`
	OutputPath  string  `json:"output_path,omitempty" db:"output_path"`
	DurationMs  int64   `json:"duration_ms" db:"duration_ms"`

	// Metadata
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// JobStatus constants
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// RenderJobFilter represents filter parameters for listing jobs
type RenderJobFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// RenderRequest is the body of a render API call
type RenderRequest struct {
	Points  []MeasurementPoint `json:"points" binding:"required"`
	Options RenderOptions      `json:"options"`
	Format  string             `json:"format"` // png, jpg, gif
	DPI     float64            `json:"dpi"`
}
