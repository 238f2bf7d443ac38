package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nitro-dev/nitro/pkg/router"
)

// Navigation outcomes.
const (
	OutcomeRender   = "render"
	OutcomeRedirect = "redirect"
	OutcomeError    = "error"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "nitro").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for loader duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "nitro",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors of an application. Create it
// once per registry; registering twice panics.
type Metrics struct {
	navigations    *prometheus.CounterVec
	loaderDuration *prometheus.HistogramVec
	redirects      *prometheus.CounterVec
	loaderErrors   *prometheus.CounterVec
	activeSessions prometheus.Gauge
	rebuilds       prometheus.Counter
}

// NewMetrics registers the navigation metrics:
//   - nitro_navigations_total: navigations by route and outcome
//   - nitro_loader_duration_seconds: loader latency by route
//   - nitro_redirects_total: guard redirects by guard name
//   - nitro_loader_errors_total: loader errors by route and error type
//   - nitro_active_sessions: sessions held in memory
//   - nitro_rebuilds_total: route table rebuilds
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by route and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "outcome"}),

		loaderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loader_duration_seconds",
			Help:        "Route loader duration in seconds, including the wait for app state",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "redirects_total",
			Help:        "Total number of navigations redirected, by guard",
			ConstLabels: config.ConstLabels,
		}, []string{"guard"}),

		loaderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loader_errors_total",
			Help:        "Total number of loader errors",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "error_type"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of sessions held in memory",
			ConstLabels: config.ConstLabels,
		}),

		rebuilds: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rebuilds_total",
			Help:        "Total number of route table rebuilds",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Loader returns the loader middleware recording navigation metrics.
// Routes are labelled by pattern, never by concrete path.
func (m *Metrics) Loader() router.LoaderMiddleware {
	return func(next router.Loader) router.Loader {
		return func(ctx context.Context, nav router.Navigation) (router.Outcome, error) {
			label := nav.Route.Path
			if nav.Route.Method != "" {
				label = nav.Route.Method + " " + label
			}

			start := time.Now()
			out, err := next(ctx, nav)
			m.loaderDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

			switch {
			case err != nil:
				m.loaderErrors.WithLabelValues(label, categorizeError(err)).Inc()
				m.navigations.WithLabelValues(label, OutcomeError).Inc()
			case out.Redirect != "":
				m.redirects.WithLabelValues(out.By).Inc()
				m.navigations.WithLabelValues(label, OutcomeRedirect).Inc()
			default:
				m.navigations.WithLabelValues(label, OutcomeRender).Inc()
			}
			return out, err
		}
	}
}

// SessionCreated records a new session.
func (m *Metrics) SessionCreated() {
	m.activeSessions.Inc()
}

// SessionEvicted records a session leaving memory.
func (m *Metrics) SessionEvicted() {
	m.activeSessions.Dec()
}

// Rebuilt records a route table rebuild.
func (m *Metrics) Rebuilt() {
	m.rebuilds.Inc()
}

// categorizeError keeps error labels low-cardinality.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "unauthorized"):
		return "unauthorized"
	default:
		return "internal"
	}
}
