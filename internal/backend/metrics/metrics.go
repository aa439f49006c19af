package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the service's Prometheus collectors on a dedicated
// registry.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	predictionsTotal *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecoclassify",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ecoclassify",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	predictionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecoclassify",
			Name:      "predictions_total",
			Help:      "Successful classifications per waste class.",
		},
		[]string{"class"},
	)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestTotal,
		requestDuration,
		predictionsTotal,
	)

	return &Metrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		predictionsTotal: predictionsTotal,
	}
}

// Middleware records request counts and latencies per route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if httpError, ok := err.(*echo.HTTPError); ok {
					status = httpError.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			path := c.Path()
			m.requestTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ObservePrediction counts one successful classification.
func (m *Metrics) ObservePrediction(class string) {
	m.predictionsTotal.WithLabelValues(class).Inc()
}

// Handler serves the exposition endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
