package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names exported by the HTTP middleware.
const (
	MetricRateLimitChecked     = "boothpulse_rate_limit_checked_total"
	MetricRateLimitBlocked     = "boothpulse_rate_limit_blocked_total"
	MetricRateLimitRedisErrors = "boothpulse_rate_limit_redis_errors_total"
	MetricHTTPRequestDuration  = "boothpulse_http_request_duration_seconds"
	MetricHTTPRequestsTotal    = "boothpulse_http_requests_total"
	MetricHTTPSnapshotBytes    = "boothpulse_http_snapshot_size_bytes"
	MetricHTTPResponseBytes    = "boothpulse_http_response_size_bytes"
)

// Body encodings reported on the snapshot size histogram.
const (
	EncodingJSON  = "json"
	EncodingCBOR  = "cbor"
	EncodingOther = "other"
)

// Metrics holds the collectors shared by the rate limiter and HTTPMetrics.
type Metrics struct {
	limitChecked  *prometheus.CounterVec
	limitBlocked  *prometheus.CounterVec
	limitRedisErr prometheus.Counter
	duration      *prometheus.HistogramVec
	requests      *prometheus.CounterVec
	snapshotBytes *prometheus.HistogramVec
	responseBytes *prometheus.HistogramVec
}

// RequestSample is one served request as seen by HTTPMetrics.
type RequestSample struct {
	Method   string
	Route    string // bounded label from normalizePath
	Status   int
	Duration time.Duration
	// Encoding and BodyBytes describe a submitted snapshot body. Requests
	// without a body leave BodyBytes at 0 and are not observed as snapshots.
	Encoding      string
	BodyBytes     int64
	ResponseBytes int64
}

// NewMetrics creates the middleware collectors without registering them.
func NewMetrics() *Metrics {
	route := []string{"method", "route", "status"}
	limiter := []string{"route", "limiter"}
	// Snapshots run from a few events to the 8 MiB body cap.
	sizes := prometheus.ExponentialBuckets(256, 4, 8)

	return &Metrics{
		limitChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRateLimitChecked,
			Help: "Requests checked by a rate limiter, by route and limiter",
		}, limiter),
		limitBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRateLimitBlocked,
			Help: "Requests rejected with 429, by route and limiter",
		}, limiter),
		limitRedisErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRateLimitRedisErrors,
			Help: "Redis failures during rate limiting; the request was let through",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "Time to serve a request, aggregation pass included",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, route),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "Requests served, by method, route and status",
		}, route),
		snapshotBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPSnapshotBytes,
			Help:    "Size of submitted snapshot bodies, by route and encoding",
			Buckets: sizes,
		}, []string{"route", "encoding"}),
		responseBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPResponseBytes,
			Help:    "Size of response bodies, by route",
			Buckets: sizes,
		}, []string{"route"}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRateLimitChecked counts one request seen by the named limiter.
func (m *Metrics) IncRateLimitChecked(route, limiter string) {
	m.limitChecked.WithLabelValues(route, limiter).Inc()
}

// IncRateLimitBlocked counts one request the named limiter rejected.
func (m *Metrics) IncRateLimitBlocked(route, limiter string) {
	m.limitBlocked.WithLabelValues(route, limiter).Inc()
}

// IncRateLimitRedisErrors counts a Redis failure that let a request through.
func (m *Metrics) IncRateLimitRedisErrors() {
	m.limitRedisErr.Inc()
}

// Observe records s.
func (m *Metrics) Observe(s RequestSample) {
	status := statusLabel(s.Status)
	m.duration.WithLabelValues(s.Method, s.Route, status).Observe(s.Duration.Seconds())
	m.requests.WithLabelValues(s.Method, s.Route, status).Inc()
	m.responseBytes.WithLabelValues(s.Route).Observe(float64(s.ResponseBytes))
	if s.BodyBytes > 0 {
		enc := s.Encoding
		if enc == "" {
			enc = EncodingOther
		}
		m.snapshotBytes.WithLabelValues(s.Route, enc).Observe(float64(s.BodyBytes))
	}
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.limitChecked,
		m.limitBlocked,
		m.limitRedisErr,
		m.duration,
		m.requests,
		m.snapshotBytes,
		m.responseBytes,
	}
}
