package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	xdraw "golang.org/x/image/draw"

	"github.com/jengzang/measurement-map-go/internal/artifact"
	"github.com/jengzang/measurement-map-go/internal/database"
	"github.com/jengzang/measurement-map-go/internal/dataset"
	"github.com/jengzang/measurement-map-go/internal/events"
	"github.com/jengzang/measurement-map-go/internal/models"
	"github.com/jengzang/measurement-map-go/internal/observability"
	"github.com/jengzang/measurement-map-go/internal/render"
	"github.com/jengzang/measurement-map-go/internal/repository"
	"github.com/jengzang/measurement-map-go/internal/tiles"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.JobEvent
}

func (p *recordingPublisher) PublishJob(_ context.Context, e events.JobEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() {}

func whiteTiles(err error) tiles.Fetcher {
	return tiles.FetcherFunc(func(_ context.Context, _, _, _ int) (image.Image, error) {
		if err != nil {
			return nil, err
		}
		img := image.NewRGBA(image.Rect(0, 0, tiles.TileSize, tiles.TileSize))
		xdraw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
		return img, nil
	})
}

type fixture struct {
	svc       *MapService
	publisher *recordingPublisher
	metrics   *observability.RenderCollector
	out       *bytes.Buffer
	outputDir string
}

func newFixture(t *testing.T, fetchErr error) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(database.Config{Path: filepath.Join(dir, "maps.db")})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	metrics, err := observability.NewRenderCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRenderCollector() error = %v", err)
	}

	f := &fixture{
		publisher: &recordingPublisher{},
		metrics:   metrics,
		out:       &bytes.Buffer{},
		outputDir: filepath.Join(dir, "output"),
	}
	f.svc = NewMapService(
		render.NewRenderer(whiteTiles(fetchErr)),
		artifact.NewWriter(f.out),
		repository.NewRenderJobRepository(db),
		f.publisher,
		metrics,
		f.outputDir,
	)
	return f
}

func osloRequest() models.RenderRequest {
	return models.RenderRequest{
		Points: dataset.OsloRoute(),
		Options: models.RenderOptions{
			Title:      "Oslo",
			ValueLabel: "Latency",
			ValueUnit:  "ms",
		},
		DPI: 40,
	}
}

func TestMapService_CreateMap(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.svc.CreateMap(context.Background(), osloRequest())
	if err != nil {
		t.Fatalf("CreateMap() error = %v, want nil", err)
	}

	job := result.Job
	if job.Status != models.JobStatusCompleted {
		t.Errorf("Status = %q, want completed", job.Status)
	}
	if job.ValueField != "latency" || job.MinValue != 8.7 || job.MaxValue != 22.1 {
		t.Errorf("job results = %+v", job)
	}
	if job.Format != artifact.FormatPNG || filepath.Dir(job.OutputPath) != f.outputDir {
		t.Errorf("OutputPath = %q, Format = %q", job.OutputPath, job.Format)
	}
	if info, err := os.Stat(job.OutputPath); err != nil || info.Size() == 0 {
		t.Errorf("saved image missing or empty: %v", err)
	}
	if want := "Map saved as '" + job.OutputPath + "'!\n"; f.out.String() != want {
		t.Errorf("writer output = %q, want %q", f.out.String(), want)
	}

	stored, err := f.svc.GetJob(job.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetJob() = %v, %v", stored, err)
	}
	if stored.Status != models.JobStatusCompleted || stored.TileCount != result.Summary.TileCount {
		t.Errorf("stored job = %+v", stored)
	}

	if len(f.publisher.events) != 1 || f.publisher.events[0].Status != models.JobStatusCompleted {
		t.Errorf("published events = %+v, want one completed", f.publisher.events)
	}
	if got := testutil.ToFloat64(f.metrics.Renders.WithLabelValues(models.JobStatusCompleted)); got != 1 {
		t.Errorf("map_renders_total{completed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.RendersRunning); got != 0 {
		t.Errorf("map_renders_in_flight = %v, want 0", got)
	}
}

func TestMapService_CreateMapRecordsFailure(t *testing.T) {
	f := newFixture(t, errors.New("no route to host"))

	result, err := f.svc.CreateMap(context.Background(), osloRequest())
	if !errors.Is(err, tiles.ErrTileFetch) {
		t.Fatalf("CreateMap() error = %v, want ErrTileFetch", err)
	}
	if result == nil || result.Job.Status != models.JobStatusFailed || result.Job.ErrorMessage == "" {
		t.Fatalf("result = %+v, want failed job with message", result)
	}
	if result.Job.OutputPath != "" {
		t.Errorf("OutputPath = %q, want empty", result.Job.OutputPath)
	}

	stored, _ := f.svc.GetJob(result.Job.ID)
	if stored == nil || stored.Status != models.JobStatusFailed {
		t.Errorf("stored job = %+v, want failed", stored)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Error == "" {
		t.Errorf("published events = %+v, want one failure", f.publisher.events)
	}
	if got := testutil.ToFloat64(f.metrics.Renders.WithLabelValues(models.JobStatusFailed)); got != 1 {
		t.Errorf("map_renders_total{failed} = %v, want 1", got)
	}
	if f.out.Len() != 0 {
		t.Errorf("writer output = %q, want nothing", f.out.String())
	}
}

func TestMapService_CreateMapRejectsFormat(t *testing.T) {
	f := newFixture(t, nil)
	req := osloRequest()
	req.Format = "tiff"

	result, err := f.svc.CreateMap(context.Background(), req)
	if !errors.Is(err, render.ErrInput) {
		t.Fatalf("CreateMap() error = %v, want ErrInput", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if jobs, total, _ := f.svc.ListJobs(models.RenderJobFilter{}); total != 0 || len(jobs) != 0 {
		t.Errorf("ListJobs() total = %d, want no recorded job", total)
	}
}

func TestMapService_Preview(t *testing.T) {
	f := newFixture(t, nil)
	req := osloRequest()
	req.Format = "jpg"

	var buf bytes.Buffer
	contentType, summary, err := f.svc.Preview(context.Background(), req, &buf)
	if err != nil {
		t.Fatalf("Preview() error = %v, want nil", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", contentType)
	}
	if summary.PointCount != 6 || buf.Len() == 0 {
		t.Errorf("summary = %+v, %d bytes", summary, buf.Len())
	}
	if _, total, _ := f.svc.ListJobs(models.RenderJobFilter{}); total != 0 {
		t.Errorf("Preview() recorded %d jobs, want 0", total)
	}
}

func TestMapService_DeleteJob(t *testing.T) {
	f := newFixture(t, nil)
	result, err := f.svc.CreateMap(context.Background(), osloRequest())
	if err != nil {
		t.Fatalf("CreateMap() error = %v", err)
	}

	deleted, err := f.svc.DeleteJob(result.Job.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteJob() = %v, %v; want true, nil", deleted, err)
	}
	if _, err := os.Stat(result.Job.OutputPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("image still present: %v", err)
	}

	deleted, err = f.svc.DeleteJob(result.Job.ID)
	if err != nil || deleted {
		t.Errorf("second DeleteJob() = %v, %v; want false, nil", deleted, err)
	}
}
