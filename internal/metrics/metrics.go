package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the Tally server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Session command metrics.
	SessionCommandsTotal *prometheus.CounterVec
	SessionsCreatedTotal prometheus.Counter

	// GitHub fetch metrics.
	GitHubFetchesTotal  *prometheus.CounterVec
	GitHubFetchDuration prometheus.Histogram

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tally_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		SessionCommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_session_commands_total",
			Help: "Total number of session commands by outcome.",
		}, []string{"command", "outcome"}),

		SessionsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_sessions_created_total",
			Help: "Total number of client sessions created.",
		}),

		GitHubFetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_github_fetches_total",
			Help: "Total number of GitHub pull-request fetches.",
		}, []string{"status"}),

		GitHubFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tally_github_fetch_duration_seconds",
			Help:    "GitHub fetch duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tally_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SessionCommandsTotal,
		m.SessionsCreatedTotal,
		m.GitHubFetchesTotal,
		m.GitHubFetchDuration,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// RegisterSessionGauge exposes the live-session count as a gauge.
func (m *Metrics) RegisterSessionGauge(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tally_sessions_active",
		Help: "Number of live client sessions.",
	}, func() float64 { return float64(count()) }))
}

// ObserveHTTPRequest records one handled HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, pathPattern string, statusCode int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, fmt.Sprintf("%d", statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(seconds)
}

// IncSessionCommand counts one session command by outcome ("ok" or "error").
func (m *Metrics) IncSessionCommand(command, outcome string) {
	m.SessionCommandsTotal.WithLabelValues(command, outcome).Inc()
}

// IncSessionCreated counts one created client session.
func (m *Metrics) IncSessionCreated() {
	m.SessionsCreatedTotal.Inc()
}

// ObserveGitHubFetch records one pull-request fetch attempt.
func (m *Metrics) ObserveGitHubFetch(status string, seconds float64) {
	m.GitHubFetchesTotal.WithLabelValues(status).Inc()
	m.GitHubFetchDuration.Observe(seconds)
}
