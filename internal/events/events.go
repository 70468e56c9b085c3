// Package events announces render job status changes.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/measurement-map-go/internal/models"
)

// ErrNotConnected is returned when publishing without a broker connection
var ErrNotConnected = errors.New("mqtt client not connected")

// JobEvent is the payload published on every status change of a render job
type JobEvent struct {
	JobID      string           `json:"job_id"`
	Status     string           `json:"status"`
	Title      string           `json:"title,omitempty"`
	PointCount int              `json:"point_count"`
	OutputPath string           `json:"output_path,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMs int64            `json:"duration_ms,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// EventFromJob snapshots a job into an event
func EventFromJob(job *models.RenderJob) JobEvent {
	return JobEvent{
		JobID:      job.ID,
		Status:     job.Status,
		Title:      job.Title,
		PointCount: job.PointCount,
		OutputPath: job.OutputPath,
		Error:      job.ErrorMessage,
		DurationMs: job.DurationMs,
		Timestamp:  job.UpdatedAt,
	}
}

// Publisher delivers job events
type Publisher interface {
	PublishJob(ctx context.Context, e JobEvent) error
	Close()
}

// Topic returns the status topic for a job
func Topic(jobID string) string {
	return fmt.Sprintf("maps/%s/status", jobID)
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishJob(context.Context, JobEvent) error { return nil }

func (NopPublisher) Close() {}
