package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing, so
// components can be built without a registry in tests.
type Metrics struct {
	// Client request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec
	AuthAborts      *prometheus.CounterVec

	// Navigation metrics
	Transitions        *prometheus.CounterVec
	TransitionDuration *prometheus.HistogramVec
	Superseded         *prometheus.CounterVec
	Emits              *prometheus.CounterVec

	// Served requests (fake API)
	ServedTotal    *prometheus.CounterVec
	ServedDuration *prometheus.HistogramVec

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current counter values for the CLI stats command.
type Snapshot struct {
	TotalRequests int64
	TotalErrors   int64
	AuthAborts    int64
	Superseded    int64
	TotalDuration float64 // sum of all request durations
}

// AverageDuration returns the mean request duration in seconds.
func (s Snapshot) AverageDuration() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return s.TotalDuration / float64(s.TotalRequests)
}

// NewMetrics creates a metrics collector registered on reg. A nil reg
// registers on a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iconfind_http_requests_total",
				Help: "Total number of REST calls issued",
			},
			[]string{"resource", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "iconfind_http_request_duration_seconds",
				Help:    "REST call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"resource", "method"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "iconfind_http_response_size_bytes",
				Help:    "REST response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"resource"},
		),
		AuthAborts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iconfind_auth_aborts_total",
				Help: "Calls abandoned because the session was unauthenticated",
			},
			[]string{"resource", "method"},
		),

		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iconfind_transitions_total",
				Help: "Navigation transitions applied",
			},
			[]string{"op", "status"},
		),
		TransitionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "iconfind_transition_duration_seconds",
				Help:    "Time from transition to settled fetch",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"op"},
		),
		Superseded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iconfind_fetches_superseded_total",
				Help: "In-flight fetches cancelled by a newer request",
			},
			[]string{"kind"},
		),
		Emits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iconfind_stream_emits_total",
				Help: "Values published on navigation streams",
			},
			[]string{"stream"},
		),

		ServedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iconfind_served_requests_total",
				Help: "Requests handled by the embedded demo API",
			},
			[]string{"method", "path", "status"},
		),
		ServedDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "iconfind_served_duration_seconds",
				Help:    "Demo API handler duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
	}
}

// RecordRequest records a completed REST call
func (m *Metrics) RecordRequest(resource, method, status string, duration time.Duration, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(resource, method, status).Inc()
	m.RequestDuration.WithLabelValues(resource, method).Observe(duration.Seconds())
	if respSize >= 0 {
		m.ResponseSize.WithLabelValues(resource).Observe(float64(respSize))
	}

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status == "" || status == "error" || status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordAuthAbort records a call dropped by the auth gate
func (m *Metrics) RecordAuthAbort(resource, method string) {
	if m == nil {
		return
	}
	m.AuthAborts.WithLabelValues(resource, method).Inc()
	m.mu.Lock()
	m.snapshot.AuthAborts++
	m.mu.Unlock()
}

// RecordSuperseded records a fetch cancelled in favour of a newer one
func (m *Metrics) RecordSuperseded(kind string) {
	if m == nil {
		return
	}
	m.Superseded.WithLabelValues(kind).Inc()
	m.mu.Lock()
	m.snapshot.Superseded++
	m.mu.Unlock()
}

// RecordEmit records a value published on a stream
func (m *Metrics) RecordEmit(stream string) {
	if m == nil {
		return
	}
	m.Emits.WithLabelValues(stream).Inc()
}

// RecordTransition records a navigation transition outcome
func (m *Metrics) RecordTransition(op, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(op, status).Inc()
	m.TransitionDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordServed records a request handled by the demo API
func (m *Metrics) RecordServed(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ServedTotal.WithLabelValues(method, path, status).Inc()
	m.ServedDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Snapshot returns the current counter values
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
