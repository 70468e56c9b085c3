package observability

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/jengzang/measurement-map-go/internal/config"
)

func TestTracingConfigFrom(t *testing.T) {
	cfg := &config.Config{TracingEnabled: true, TracingSampleRatio: 7}

	tc := TracingConfigFrom(cfg, "mapgen")
	if !tc.Enabled || tc.ServiceName != "mapgen" {
		t.Errorf("TracingConfigFrom() = %+v", tc)
	}
	if tc.SampleRatio != 1 {
		t.Errorf("SampleRatio = %v, want out-of-range ratio clamped to 1", tc.SampleRatio)
	}
}

func TestInitTracing_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	shutdown, err := InitTracing(ctx, TracingConfig{Enabled: true, ServiceName: "test", SampleRatio: 1, Writer: &buf}, logger)
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	t.Cleanup(func() {
		_, _ = InitTracing(ctx, TracingConfig{}, logger)
	})

	_, span := otel.Tracer("test").Start(ctx, "render.Render")
	span.End()
	ShutdownWithTimeout(ctx, shutdown, logger)

	if !strings.Contains(buf.String(), "render.Render") {
		t.Errorf("exported spans missing render.Render: %s", buf.String())
	}
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}
