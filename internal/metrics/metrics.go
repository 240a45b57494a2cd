// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"fulfillment/internal/core/domain/model/delivery"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry, so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimitExceeded   prometheus.Counter

	EventsPublished     *prometheus.CounterVec
	EventsDropped       prometheus.Counter
	EventsSuperseded    prometheus.Counter
	SubscriberFailures  prometheus.Counter
	RealtimeConnections prometheus.Gauge
	KafkaWriteErrors    prometheus.Counter

	ActiveDeliveries *prometheus.GaugeVec
	SilentTrackers   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		RateLimitExceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_exceeded_total",
			Help: "Total number of rejected HTTP requests due to rate limiting",
		}),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "delivery_events_published_total",
				Help: "Delivery events handed to the realtime hub",
			},
			[]string{"type"},
		),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_events_dropped_total",
			Help: "Events dropped because a subscriber queue was full",
		}),
		EventsSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_events_superseded_total",
			Help: "Events discarded because a later version was already published",
		}),
		SubscriberFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_subscriber_failures_total",
			Help: "Subscribers detached after a failed send",
		}),
		RealtimeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Currently attached realtime connections",
		}),
		KafkaWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_write_errors_total",
			Help: "Delivery events that could not be written to Kafka",
		}),
		ActiveDeliveries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "active_deliveries",
				Help: "Deliveries that are neither delivered nor cancelled, by status",
			},
			[]string{"status"},
		),
		SilentTrackers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "silent_trackers",
			Help: "In-transit deliveries whose tracker has not reported recently",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RateLimitExceeded,
		m.EventsPublished,
		m.EventsDropped,
		m.EventsSuperseded,
		m.SubscriberFailures,
		m.RealtimeConnections,
		m.KafkaWriteErrors,
		m.ActiveDeliveries,
		m.SilentTrackers,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The methods below let the realtime hub report into the collectors.

func (m *Metrics) ConnectionsChanged(n int) {
	m.RealtimeConnections.Set(float64(n))
}

func (m *Metrics) EventPublished(eventType delivery.EventType) {
	m.EventsPublished.WithLabelValues(string(eventType)).Inc()
}

func (m *Metrics) EventDropped() {
	m.EventsDropped.Inc()
}

func (m *Metrics) EventSuperseded() {
	m.EventsSuperseded.Inc()
}

func (m *Metrics) SubscriberFailed() {
	m.SubscriberFailures.Inc()
}

// SetActiveDeliveries replaces the per-status gauge values. Statuses missing
// from counts are reset to zero.
func (m *Metrics) SetActiveDeliveries(counts map[delivery.Status]int) {
	for _, status := range delivery.AllStatuses() {
		if !status.IsActive() {
			continue
		}
		m.ActiveDeliveries.WithLabelValues(status.String()).Set(float64(counts[status]))
	}
}

func (m *Metrics) SetSilentTrackers(n int) {
	m.SilentTrackers.Set(float64(n))
}
