package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics records request counts and latency per route.
type HTTPMetrics struct {
	requests metric.Int64Counter
	latency  *prometheus.HistogramVec
}

func NewHTTPMetrics(cfg Config, provider metric.MeterProvider) (*HTTPMetrics, error) {
	return newHTTPMetrics(cfg, provider, prometheus.DefaultRegisterer)
}

func newHTTPMetrics(cfg Config, provider metric.MeterProvider, registerer prometheus.Registerer) (*HTTPMetrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "peoplehub"
	}
	requests, err := provider.Meter(name).Int64Counter("peoplehub_http_requests_total")
	if err != nil {
		return nil, err
	}

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "peoplehub_http_request_duration_seconds",
		Help:        "HTTP request latency by route.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: prometheus.Labels{"service": name},
	}, []string{"method", "route", "status_code"})
	if err := registerer.Register(latency); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = already.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &HTTPMetrics{requests: requests, latency: latency}, nil
}

// GinMiddleware records every request against its route template.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.latency.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.requests.Add(c.Request.Context(), 1, metric.WithAttributes(FilterAttributes(
			attribute.String("endpoint", route),
			attribute.String("status_code", status),
		)...))
	}
}
