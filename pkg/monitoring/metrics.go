package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector manages Prometheus metrics for a service.
// Each collector owns its registry so several services (or tests) can live in one process.
type MetricsCollector struct {
	serviceName string
	registry    *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	activeConnections   prometheus.Gauge
	serviceInfo         *prometheus.GaugeVec

	customMetrics map[string]prometheus.Collector
}

// NewMetricsCollector creates a new metrics collector for a service
func NewMetricsCollector(serviceName, version, commit string) *MetricsCollector {
	// Prometheus names cannot carry hyphens
	sanitizedServiceName := strings.ReplaceAll(serviceName, "-", "_")

	mc := &MetricsCollector{
		serviceName:   sanitizedServiceName,
		registry:      prometheus.NewRegistry(),
		customMetrics: make(map[string]prometheus.Collector),
	}

	mc.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: mc.serviceName + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	mc.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    mc.serviceName + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	mc.activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_active_connections",
			Help: "Number of active connections",
		},
	)

	mc.serviceInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_service_info",
			Help: "Service information",
		},
		[]string{"version", "commit"},
	)

	mc.registry.MustRegister(
		mc.httpRequestsTotal,
		mc.httpRequestDuration,
		mc.activeConnections,
		mc.serviceInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mc.serviceInfo.WithLabelValues(version, commit).Set(1)

	return mc
}

// Registry exposes the collector's registry, mostly for tests.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// RegisterCustomMetric registers a custom Prometheus metric
func (mc *MetricsCollector) RegisterCustomMetric(name string, metric prometheus.Collector) {
	mc.customMetrics[name] = metric
	mc.registry.MustRegister(metric)
}

// MetricsMiddleware returns middleware that collects HTTP metrics
func (mc *MetricsCollector) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		mc.activeConnections.Inc()
		defer mc.activeConnections.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		mc.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		mc.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (mc *MetricsCollector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{Registry: mc.registry})
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// NewCounter creates a new counter metric for the service
func (mc *MetricsCollector) NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: mc.serviceName + "_" + name,
			Help: help,
		},
		labels,
	)
	mc.RegisterCustomMetric(name, counter)
	return counter
}

// NewGauge creates a new gauge metric for the service
func (mc *MetricsCollector) NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_" + name,
			Help: help,
		},
		labels,
	)
	mc.RegisterCustomMetric(name, gauge)
	return gauge
}

// NewHistogram creates a new histogram metric for the service
func (mc *MetricsCollector) NewHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    mc.serviceName + "_" + name,
			Help:    help,
			Buckets: buckets,
		},
		labels,
	)
	mc.RegisterCustomMetric(name, histogram)
	return histogram
}

// GenerationMetrics groups the counters shared by everything that asks for apology drafts.
type GenerationMetrics struct {
	Requests   *prometheus.CounterVec   // generations_total{operation,outcome}
	Duration   *prometheus.HistogramVec // generation_duration_seconds{operation}
	Drafts     *prometheus.CounterVec   // drafts_total{channel}
	Moderation *prometheus.CounterVec   // moderation_total{category}
}

// CreateGenerationMetrics creates the generation metric family.
func (mc *MetricsCollector) CreateGenerationMetrics() *GenerationMetrics {
	return &GenerationMetrics{
		Requests: mc.NewCounter("generations_total", "Apology generation requests by operation and outcome", []string{"operation", "outcome"}),
		Duration: mc.NewHistogram("generation_duration_seconds", "Apology generation latency", []string{"operation"},
			[]float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}),
		Drafts:     mc.NewCounter("drafts_total", "Drafts produced per channel", []string{"channel"}),
		Moderation: mc.NewCounter("moderation_total", "Moderation verdicts by category", []string{"category"}),
	}
}

// CreateRateLimitMetrics creates counters for rate limiter decisions.
func (mc *MetricsCollector) CreateRateLimitMetrics() (
	*prometheus.CounterVec, // ratelimit_decisions_total{decision}
	*prometheus.CounterVec, // ratelimit_backend_errors_total{backend}
) {
	decisions := mc.NewCounter("ratelimit_decisions_total", "Rate limiter decisions", []string{"decision"})
	errs := mc.NewCounter("ratelimit_backend_errors_total", "Rate limiter backend failures", []string{"backend"})
	return decisions, errs
}

// CreateUpstreamMetrics creates metrics for outbound calls to dependent services.
func (mc *MetricsCollector) CreateUpstreamMetrics() (
	*prometheus.CounterVec, // upstream_requests_total{upstream,status}
	*prometheus.HistogramVec, // upstream_request_duration_seconds{upstream}
) {
	requests := mc.NewCounter("upstream_requests_total", "Outbound requests to dependencies", []string{"upstream", "status"})
	duration := mc.NewHistogram("upstream_request_duration_seconds", "Outbound request duration", []string{"upstream"}, nil)
	return requests, duration
}
