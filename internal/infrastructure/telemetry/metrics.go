package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "pathway"

// Metrics holds the Prometheus collectors for the service. All methods are
// safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	casesSubmitted   *prometheus.CounterVec
	caseTransitions  *prometheus.CounterVec
	caseAssignments  *prometheus.CounterVec
	escalations      *prometheus.CounterVec
	complianceFlags  *prometheus.CounterVec
	outboxDeliveries *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	loginAttempts    *prometheus.CounterVec
}

// NewMetrics creates a Metrics with its own registry. Process and Go runtime
// collectors are registered alongside the service collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		casesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cases",
			Name:      "submitted_total",
			Help:      "Cases created through patient intake.",
		}, []string{"pathway", "urgency"}),
		caseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cases",
			Name:      "transitions_total",
			Help:      "Case status transitions.",
		}, []string{"from", "to"}),
		caseAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cases",
			Name:      "assignments_total",
			Help:      "Case assignments by mode.",
		}, []string{"mode"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "escalations",
			Name:      "events_total",
			Help:      "Escalations raised and resolved.",
		}, []string{"event", "priority"}),
		complianceFlags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "compliance",
			Name:      "flags_total",
			Help:      "Compliance flags raised and cleared.",
		}, []string{"event", "severity"}),
		outboxDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "outbox",
			Name:      "deliveries_total",
			Help:      "Outbox delivery attempts by result.",
		}, []string{"event_type", "result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job executions.",
		}, []string{"job", "success"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "scheduler",
			Name:      "job_run_duration_seconds",
			Help:      "Duration of scheduled job executions.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"job"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by subject type and outcome.",
		}, []string{"subject", "success"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.casesSubmitted,
		m.caseTransitions,
		m.caseAssignments,
		m.escalations,
		m.complianceFlags,
		m.outboxDeliveries,
		m.jobRuns,
		m.jobDuration,
		m.loginAttempts,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPStarted increments the in-flight gauge and returns the func that
// records the finished request.
func (m *Metrics) HTTPStarted() func(method, route string, status int) {
	if m == nil {
		return func(string, string, int) {}
	}
	start := time.Now()
	m.httpInFlight.Inc()
	return func(method, route string, status int) {
		m.httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// CaseSubmitted records a new case from intake
func (m *Metrics) CaseSubmitted(pathway, urgency string) {
	if m == nil {
		return
	}
	m.casesSubmitted.WithLabelValues(pathway, urgency).Inc()
}

// CaseTransitioned records a status change
func (m *Metrics) CaseTransitioned(from, to string) {
	if m == nil {
		return
	}
	m.caseTransitions.WithLabelValues(from, to).Inc()
}

// CaseAssigned records an assignment; mode is direct, pool or manual.
func (m *Metrics) CaseAssigned(mode string) {
	if m == nil {
		return
	}
	m.caseAssignments.WithLabelValues(mode).Inc()
}

// EscalationEvent records event ("raised", "acknowledged", "resolved") for an escalation.
func (m *Metrics) EscalationEvent(event, priority string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(event, priority).Inc()
}

// ComplianceFlagEvent records a flag being raised or cleared
func (m *Metrics) ComplianceFlagEvent(event, severity string) {
	if m == nil {
		return
	}
	m.complianceFlags.WithLabelValues(event, severity).Inc()
}

// ObserveDelivery implements event.OutboxObserver
func (m *Metrics) ObserveDelivery(eventType, result string) {
	if m == nil {
		return
	}
	m.outboxDeliveries.WithLabelValues(eventType, result).Inc()
}

// JobRun records a scheduled job execution
func (m *Metrics) JobRun(job string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	if job == "" {
		job = "unknown"
	}
	m.jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// LoginAttempt records a login for subject ("admin" or "pd")
func (m *Metrics) LoginAttempt(subject string, success bool) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(subject, strconv.FormatBool(success)).Inc()
}
