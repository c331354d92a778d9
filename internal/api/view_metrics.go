package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names exported by the view handlers.
const (
	MetricViewPasses        = "boothpulse_view_passes_total"
	MetricViewEvents        = "boothpulse_view_events_total"
	MetricViewWarnings      = "boothpulse_view_warnings_total"
	MetricViewPassDuration  = "boothpulse_view_pass_duration_seconds"
	MetricViewSourceErrors  = "boothpulse_view_source_errors_total"
	MetricWebSocketClients  = "boothpulse_websocket_clients"
	MetricNotificationsSent = "boothpulse_notifications_sent_total"
)

// ViewMetrics contains Prometheus collectors for aggregation passes.
// All operations are safe for concurrent use.
type ViewMetrics struct {
	passes        *prometheus.CounterVec
	events        *prometheus.CounterVec
	warnings      *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
	sourceErrors  *prometheus.CounterVec
	notifications prometheus.Counter
	clients       prometheus.Collector
}

// NewViewMetrics creates the view collectors. clientCount, when non-nil,
// backs a gauge of connected WebSocket clients.
func NewViewMetrics(clientCount func() int) *ViewMetrics {
	m := &ViewMetrics{
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricViewPasses,
				Help: "Total number of aggregation passes by view and input",
			},
			[]string{"view", "input"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricViewEvents,
				Help: "Total number of raw events by view and outcome (processed, excluded)",
			},
			[]string{"view", "outcome"},
		),
		warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricViewWarnings,
				Help: "Total number of data-quality warnings by view",
			},
			[]string{"view"},
		),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricViewPassDuration,
				Help:    "Aggregation pass duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"view"},
		),
		sourceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricViewSourceErrors,
				Help: "Total number of failed snapshot fetches by source",
			},
			[]string{"source"},
		),
		notifications: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricNotificationsSent,
				Help: "Total number of data_updated notifications delivered to clients",
			},
		),
	}
	if clientCount != nil {
		m.clients = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: MetricWebSocketClients,
				Help: "Number of connected WebSocket clients",
			},
			func() float64 { return float64(clientCount()) },
		)
	}
	return m
}

// Register registers all collectors with reg.
func (m *ViewMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObservePass records one pass. input is "source" or "body".
func (m *ViewMetrics) ObservePass(view, input string, duration float64, received, excluded, warnings int) {
	m.passes.WithLabelValues(view, input).Inc()
	m.events.WithLabelValues(view, "processed").Add(float64(received - excluded))
	m.events.WithLabelValues(view, "excluded").Add(float64(excluded))
	m.warnings.WithLabelValues(view).Add(float64(warnings))
	m.passDuration.WithLabelValues(view).Observe(duration)
}

// IncSourceErrors counts a failed snapshot fetch.
func (m *ViewMetrics) IncSourceErrors(source string) {
	m.sourceErrors.WithLabelValues(source).Inc()
}

// AddNotifications counts delivered refresh notifications.
func (m *ViewMetrics) AddNotifications(n int) {
	m.notifications.Add(float64(n))
}

// Collectors returns all Prometheus collectors.
func (m *ViewMetrics) Collectors() []prometheus.Collector {
	cs := []prometheus.Collector{
		m.passes,
		m.events,
		m.warnings,
		m.passDuration,
		m.sourceErrors,
		m.notifications,
	}
	if m.clients != nil {
		cs = append(cs, m.clients)
	}
	return cs
}
