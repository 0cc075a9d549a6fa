package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges shared by the flixtube services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	requestsTotal     prometheus.Counter
	errorsTotal       prometheus.Counter
	videosServedTotal prometheus.Counter
	bytesStreamed     prometheus.Counter
	activeStreams     prometheus.Gauge
	backendErrors     *prometheus.CounterVec
	viewNotifications *prometheus.CounterVec
	viewsRecorded     prometheus.Counter
}

// Outcomes of a view notification as seen by the gateway.
const (
	NotifySent    = "sent"
	NotifyFailed  = "failed"
	NotifyDropped = "dropped"
)

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flixtube_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flixtube_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	videosServedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flixtube_videos_served_total",
		Help: "Total number of video responses started with status 200",
	})
	bytesStreamed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flixtube_bytes_streamed_total",
		Help: "Total number of video bytes written to clients",
	})
	activeStreams := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flixtube_active_streams",
		Help: "Number of video responses currently being streamed",
	})
	backendErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flixtube_backend_errors_total",
		Help: "Backend failures by backend (metadata, storage)",
	}, []string{"backend"})
	viewNotifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flixtube_view_notifications_total",
		Help: "View notifications by outcome (sent, failed, dropped)",
	}, []string{"result"})
	viewsRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flixtube_views_recorded_total",
		Help: "Total number of view events persisted by the history service",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		videosServedTotal,
		bytesStreamed,
		activeStreams,
		backendErrors,
		viewNotifications,
		viewsRecorded,
	)

	return &Metrics{
		registry:          registry,
		requestsTotal:     requestsTotal,
		errorsTotal:       errorsTotal,
		videosServedTotal: videosServedTotal,
		bytesStreamed:     bytesStreamed,
		activeStreams:     activeStreams,
		backendErrors:     backendErrors,
		viewNotifications: viewNotifications,
		viewsRecorded:     viewsRecorded,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// StreamStarted records a committed 200 response and marks it active.
func (m *Metrics) StreamStarted() {
	if m == nil {
		return
	}
	m.videosServedTotal.Inc()
	m.activeStreams.Inc()
}

// StreamFinished marks a stream inactive and adds the bytes it delivered.
func (m *Metrics) StreamFinished(bytes int64) {
	if m == nil {
		return
	}
	m.activeStreams.Dec()
	m.bytesStreamed.Add(float64(bytes))
}

// IncBackendErrors counts a failure of the named backend.
func (m *Metrics) IncBackendErrors(backend string) {
	if m == nil {
		return
	}
	m.backendErrors.WithLabelValues(backend).Inc()
}

// IncViewNotifications counts a view notification with the given outcome.
func (m *Metrics) IncViewNotifications(result string) {
	if m == nil {
		return
	}
	m.viewNotifications.WithLabelValues(result).Inc()
}

// IncViewsRecorded counts a persisted view event.
func (m *Metrics) IncViewsRecorded() {
	if m == nil {
		return
	}
	m.viewsRecorded.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
