package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jengzang/measurement-map-go/internal/artifact"
	"github.com/jengzang/measurement-map-go/internal/events"
	"github.com/jengzang/measurement-map-go/internal/models"
	"github.com/jengzang/measurement-map-go/internal/observability"
	"github.com/jengzang/measurement-map-go/internal/render"
)

// Renderer draws measurement points into a figure
type Renderer interface {
	Render(ctx context.Context, points []models.MeasurementPoint, opts models.RenderOptions) (*render.Figure, *models.RenderSummary, error)
}

// JobStore persists render jobs
type JobStore interface {
	Create(job *models.RenderJob) error
	Update(job *models.RenderJob) error
	GetByID(id string) (*models.RenderJob, error)
	List(filter models.RenderJobFilter) ([]models.RenderJob, int64, error)
	Delete(id string) (bool, error)
}

// MapResult is a finished job together with what was drawn
type MapResult struct {
	Job     *models.RenderJob     `json:"job"`
	Summary *models.RenderSummary `json:"summary,omitempty"`
}

// MapService handles rendering, saving and recording measurement maps
type MapService struct {
	renderer  Renderer
	writer    *artifact.Writer
	jobs      JobStore
	publisher events.Publisher
	metrics   *observability.RenderCollector
	outputDir string
	now       func() time.Time
}

// NewMapService creates a new map service. publisher and metrics may be nil.
func NewMapService(renderer Renderer, writer *artifact.Writer, jobs JobStore, publisher events.Publisher, metrics *observability.RenderCollector, outputDir string) *MapService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &MapService{
		renderer:  renderer,
		writer:    writer,
		jobs:      jobs,
		publisher: publisher,
		metrics:   metrics,
		outputDir: outputDir,
		now:       time.Now,
	}
}

// CreateMap renders req, saves the image under the output directory and
// records the job. The returned result is non-nil whenever a job was
// recorded, including failed renders.
func (s *MapService) CreateMap(ctx context.Context, req models.RenderRequest) (*MapResult, error) {
	opts := req.Options.WithDefaults()
	format, err := requestFormat(req.Format)
	if err != nil {
		return nil, err
	}
	dpi := req.DPI
	if dpi <= 0 {
		dpi = artifact.DefaultDPI
	}

	start := s.now()
	job := &models.RenderJob{
		ID:            uuid.NewString(),
		Title:         opts.Title,
		ValueLabel:    opts.ValueLabel,
		ValueUnit:     opts.ValueUnit,
		ValueField:    opts.ValueField,
		ZoomLevel:     opts.ZoomLevel,
		PaddingMeters: opts.PaddingMeters,
		DPI:           dpi,
		Format:        format,
		Status:        models.JobStatusRunning,
		PointCount:    len(req.Points),
		CreatedAt:     start,
		UpdatedAt:     start,
	}
	if err := s.jobs.Create(job); err != nil {
		return nil, err
	}
	s.metrics.RenderStarted()
	log.Printf("[MapService] Job %s started: %d points, format=%s", job.ID, job.PointCount, format)

	summary, err := s.renderAndSave(ctx, job, req.Points, opts)
	s.finish(ctx, job, summary, err, start)

	return &MapResult{Job: job, Summary: summary}, err
}

func (s *MapService) renderAndSave(ctx context.Context, job *models.RenderJob, points []models.MeasurementPoint, opts models.RenderOptions) (*models.RenderSummary, error) {
	fig, summary, err := s.renderer.Render(ctx, points, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return summary, fmt.Errorf("%w: create output directory: %v", artifact.ErrPersistence, err)
	}
	path := filepath.Join(s.outputDir, job.ID+"."+job.Format)
	if err := s.writer.Save(fig, path, job.DPI); err != nil {
		return summary, err
	}
	job.OutputPath = path
	return summary, nil
}

func (s *MapService) finish(ctx context.Context, job *models.RenderJob, summary *models.RenderSummary, renderErr error, start time.Time) {
	if summary != nil {
		job.ValueField = summary.ValueField
		job.MinValue = summary.MinValue
		job.MaxValue = summary.MaxValue
		job.RouteMeters = summary.RouteMeters
		job.TileCount = summary.TileCount
	}

	job.Status = models.JobStatusCompleted
	if renderErr != nil {
		job.Status = models.JobStatusFailed
		job.ErrorMessage = renderErr.Error()
	}
	job.UpdatedAt = s.now()
	job.DurationMs = job.UpdatedAt.Sub(start).Milliseconds()

	if err := s.jobs.Update(job); err != nil {
		log.Printf("[MapService] Warning: failed to record job %s: %v", job.ID, err)
	}
	s.metrics.RenderFinished(job.Status, job.Format, job.UpdatedAt.Sub(start))

	if err := s.publisher.PublishJob(ctx, events.EventFromJob(job)); err != nil && !errors.Is(err, events.ErrNotConnected) {
		log.Printf("[MapService] Warning: failed to publish job %s: %v", job.ID, err)
	}

	if renderErr != nil {
		log.Printf("[MapService] Job %s failed after %dms: %v", job.ID, job.DurationMs, renderErr)
		return
	}
	log.Printf("[MapService] Job %s completed in %dms: %s", job.ID, job.DurationMs, job.OutputPath)
}

// Preview renders req and streams the image to w without recording a job.
// It returns the content type of the written image.
func (s *MapService) Preview(ctx context.Context, req models.RenderRequest, w io.Writer) (string, *models.RenderSummary, error) {
	format, err := requestFormat(req.Format)
	if err != nil {
		return "", nil, err
	}

	fig, summary, err := s.renderer.Render(ctx, req.Points, req.Options.WithDefaults())
	if err != nil {
		return "", nil, err
	}
	if err := s.writer.Encode(fig, w, format, req.DPI); err != nil {
		return "", nil, err
	}
	return artifact.ContentType(format), summary, nil
}

// GetJob retrieves a single job by ID
func (s *MapService) GetJob(id string) (*models.RenderJob, error) {
	return s.jobs.GetByID(id)
}

// ListJobs retrieves jobs with filtering and pagination
func (s *MapService) ListJobs(filter models.RenderJobFilter) ([]models.RenderJob, int64, error) {
	return s.jobs.List(filter)
}

// DeleteJob removes the job record and its image. It reports false when
// the job does not exist.
func (s *MapService) DeleteJob(id string) (bool, error) {
	job, err := s.jobs.GetByID(id)
	if err != nil || job == nil {
		return false, err
	}
	if job.OutputPath != "" {
		if err := os.Remove(job.OutputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("%w: remove %s: %v", artifact.ErrPersistence, job.OutputPath, err)
		}
	}
	return s.jobs.Delete(id)
}

func requestFormat(name string) (string, error) {
	if name == "" {
		return artifact.FormatPNG, nil
	}
	format, err := artifact.ParseFormat(name)
	if err != nil {
		return "", fmt.Errorf("%w: unsupported output format %q", render.ErrInput, name)
	}
	return format, nil
}
