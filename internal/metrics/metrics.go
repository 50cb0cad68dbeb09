// Package metrics defines the Prometheus collectors exported by the caregiver service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeCached   = "cached"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	// Refresher
	Refreshes       *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	GraphItems      *prometheus.GaugeVec
	LastRefresh     prometheus.Gauge

	// Remote commands
	Commands *prometheus.CounterVec

	// LED display
	DisplayPushes *prometheus.CounterVec

	// HTTP
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caregiver_refreshes_total",
			Help: "Total number of graph refreshes by outcome.",
		}, []string{"outcome"}),

		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "caregiver_refresh_duration_seconds",
			Help:    "Duration of graph refreshes in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),

		GraphItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "caregiver_graph_items",
			Help: "Number of graph items in the published snapshot by kind.",
		}, []string{"kind"}),

		LastRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Name: "caregiver_last_refresh_timestamp_seconds",
			Help: "Unix time of the last published snapshot.",
		}),

		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caregiver_remote_commands_total",
			Help: "Total number of remote commands sent to Loop by kind and status.",
		}, []string{"kind", "status"}),

		DisplayPushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caregiver_display_pushes_total",
			Help: "Total number of frames pushed to the LED display by status.",
		}, []string{"status"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// NewUnregistered creates collectors that are not attached to any registry.
func NewUnregistered() *Metrics {
	return New(nil)
}

// ObserveCommand counts a remote command.
func (m *Metrics) ObserveCommand(kind string, err error) {
	m.Commands.WithLabelValues(kind, status(err)).Inc()
}

// ObserveDisplayPush counts a frame pushed to the display.
func (m *Metrics) ObserveDisplayPush(err error) {
	m.DisplayPushes.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
