package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Desktop metrics
	ActivityRecords *prometheus.CounterVec
	PolicyDenials   *prometheus.CounterVec
	WindowsOpen     prometheus.Gauge
	DesktopSessions prometheus.Gauge

	// Auth metrics
	Logins *prometheus.CounterVec

	// WebSocket metrics
	WSConnections *prometheus.GaugeVec
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the admin status API
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActivityRecords   int64   `json:"activity_records"`
	PolicyDenials     int64   `json:"policy_denials"`
	DesktopSessions   int64   `json:"desktop_sessions"`
	ActiveConnections int64   `json:"active_connections"`
	AvgLatencyMS      float64 `json:"avg_latency_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector on its own registry, so several
// servers (and tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twin_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "twin_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "twin_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "twin_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		ActivityRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twin_activity_records_total",
				Help: "Activity records produced by desktop sessions",
			},
			[]string{"action"},
		),
		PolicyDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twin_policy_denials_total",
				Help: "Actions refused by the policy gate",
			},
			[]string{"policy"},
		),
		WindowsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "twin_windows_open",
				Help: "Open application windows across all desktop sessions",
			},
		),
		DesktopSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "twin_desktop_sessions",
				Help: "Number of live desktop sessions",
			},
		),

		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twin_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),

		WSConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "twin_ws_connections",
				Help: "Number of active WebSocket connections",
			},
			[]string{"client_type"},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twin_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "twin_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the private registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordActivity counts one activity record
func (m *Metrics) RecordActivity(action string) {
	m.ActivityRecords.WithLabelValues(action).Inc()
	m.mu.Lock()
	m.snapshot.ActivityRecords++
	m.mu.Unlock()
}

// RecordPolicyDenial counts one refused action
func (m *Metrics) RecordPolicyDenial(policy string) {
	m.PolicyDenials.WithLabelValues(policy).Inc()
	m.mu.Lock()
	m.snapshot.PolicyDenials++
	m.mu.Unlock()
}

// AddWindowsOpen adjusts the open window gauge by delta
func (m *Metrics) AddWindowsOpen(delta int) {
	m.WindowsOpen.Add(float64(delta))
}

// SetDesktopSessions sets the number of live desktop sessions
func (m *Metrics) SetDesktopSessions(count int) {
	m.DesktopSessions.Set(float64(count))
	m.mu.Lock()
	m.snapshot.DesktopSessions = int64(count)
	m.mu.Unlock()
}

// RecordLogin counts a login attempt ("success" or "failure")
func (m *Metrics) RecordLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections(clientType string) {
	m.WSConnections.WithLabelValues(clientType).Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections(clientType string) {
	m.WSConnections.WithLabelValues(clientType).Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON API
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	if snap.TotalRequests > 0 {
		snap.AvgLatencyMS = snap.totalDuration / float64(snap.TotalRequests) * 1000
	}
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
