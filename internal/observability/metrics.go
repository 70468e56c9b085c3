package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tile fetch results
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// RenderCollector bundles Prometheus metrics for map rendering, tile
// fetching and the HTTP API.
type RenderCollector struct {
	gatherer prometheus.Gatherer

	Renders        *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
	RendersRunning prometheus.Gauge

	TileFetches       *prometheus.CounterVec
	TileFetchDuration *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
}

// NewRenderCollector registers the metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewRenderCollector(reg prometheus.Registerer) (*RenderCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	renders, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "map_renders_total",
		Help: "Total number of map renders, labeled by final job status.",
	}, []string{"status"}), "map_renders_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "map_render_duration_seconds",
		Help:    "Wall time from request to saved artifact, in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"format"}), "map_render_duration_seconds")
	if err != nil {
		return nil, err
	}

	running, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "map_renders_in_flight",
		Help: "Renders currently in progress.",
	}), "map_renders_in_flight")
	if err != nil {
		return nil, err
	}

	fetches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "map_tile_fetches_total",
		Help: "Tile lookups, labeled by source (cache or network) and result.",
	}, []string{"source", "result"}), "map_tile_fetches_total")
	if err != nil {
		return nil, err
	}

	fetchDurations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "map_tile_fetch_duration_seconds",
		Help:    "Tile lookup latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"source"}), "map_tile_fetch_duration_seconds")
	if err != nil {
		return nil, err
	}

	httpRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "map_http_requests_total",
		Help: "HTTP requests handled, labeled by method, route and status code.",
	}, []string{"method", "route", "code"}), "map_http_requests_total")
	if err != nil {
		return nil, err
	}

	return &RenderCollector{
		gatherer:          gatherer,
		Renders:           renders,
		RenderDuration:    durations,
		RendersRunning:    running,
		TileFetches:       fetches,
		TileFetchDuration: fetchDurations,
		HTTPRequests:      httpRequests,
	}, nil
}

// RenderStarted marks one render in flight
func (c *RenderCollector) RenderStarted() {
	if c == nil {
		return
	}
	c.RendersRunning.Inc()
}

// RenderFinished records the outcome of a render started with RenderStarted
func (c *RenderCollector) RenderFinished(status, format string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.RendersRunning.Dec()
	c.Renders.WithLabelValues(status).Inc()
	c.RenderDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// TileFetched satisfies tiles.Observer
func (c *RenderCollector) TileFetched(source string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.TileFetches.WithLabelValues(source, result).Inc()
	c.TileFetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// GinMiddleware counts requests by matched route
func (c *RenderCollector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()
		if c == nil {
			return
		}
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.HTTPRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RenderCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
