// Package metrics records Prometheus metrics for page generation runs.
//
// Metrics collected:
//   - pagegen_runs_total: Counter of runs by status
//   - pagegen_stage_duration_seconds: Histogram of stage durations
//   - pagegen_pages_discovered: Gauge of pages found by the last successful run
//   - pagegen_routes_emitted: Gauge of routes emitted by the last successful run
//   - pagegen_failures_total: Counter of failed runs by kind
//   - pagegen_last_success_timestamp_seconds: Gauge of the last successful run
//
// A one-shot CLI run has no scrape window, so metrics are written to a file
// for the node_exporter textfile collector:
//
//	m := metrics.New()
//	// ... run ...
//	m.WriteTextfile("/var/lib/node_exporter/pagegen.prom")
package metrics

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/pagegen/internal/errors"
	"github.com/vango-dev/pagegen/pkg/pages"
)

// Stage names used as the "stage" label.
const (
	StageWalk    = "walk"
	StageEmit    = "emit"
	StageRender  = "render"
	StageWrite   = "write"
	StagePublish = "publish"
)

// Config configures the generation metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "pagegen").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for stage duration.
	Buckets []float64

	// Registry is the registry metrics are registered with and gathered
	// from. Default: a fresh registry, so textfiles hold only these metrics.
	Registry *prometheus.Registry
}

// Option configures the generation metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "pagegen",
		// Generation of a content tree takes milliseconds, not seconds.
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}
}

// Metrics holds the Prometheus metrics for generation runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	pagesDiscovered prometheus.Gauge
	routesEmitted   prometheus.Gauge
	failures        *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
}

// New creates and registers the generation metrics.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		registry: config.Registry,

		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "runs_total",
			Help:        "Total number of generation runs",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stage_duration_seconds",
			Help:        "Generation stage duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"stage"}),

		pagesDiscovered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pages_discovered",
			Help:        "Number of pages found by the last successful run",
			ConstLabels: config.ConstLabels,
		}),

		routesEmitted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "routes_emitted",
			Help:        "Number of routes emitted by the last successful run",
			ConstLabels: config.ConstLabels,
		}),

		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "failures_total",
			Help:        "Total number of failed generation runs by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "last_success_timestamp_seconds",
			Help:        "Unix time of the last successful generation run",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordSuccess records a successful run.
func (m *Metrics) RecordSuccess(pageCount, routeCount int) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues("success").Inc()
	m.pagesDiscovered.Set(float64(pageCount))
	m.routesEmitted.Set(float64(routeCount))
	m.lastSuccess.SetToCurrentTime()
}

// RecordFailure records a failed run.
func (m *Metrics) RecordFailure(err error) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues("failure").Inc()
	m.failures.WithLabelValues(FailureKind(err)).Inc()
}

// FailureKind returns a low-cardinality label for a run error.
func FailureKind(err error) string {
	switch {
	case stderrors.Is(err, pages.ErrInvalidName):
		return "invalid_name"
	case stderrors.Is(err, pages.ErrCantReadFile):
		return "cant_read_file"
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the metrics in the Prometheus text format. The file
// is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.New("E161").WithFile(path).Wrap(err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.New("E161").WithFile(path).Wrap(err)
	}
	return nil
}
