package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_BusinessCounters(t *testing.T) {
	m := NewMetrics()

	m.CaseSubmitted("physio", "routine")
	m.CaseSubmitted("physio", "routine")
	m.CaseTransitioned("submitted", "assigned")
	m.CaseAssigned("pool")
	m.EscalationEvent("raised", "high")
	m.ComplianceFlagEvent("raised", "critical")
	m.ObserveDelivery("case.completed", "sent")
	m.JobRun("pool_sla_sweep", 20*time.Millisecond, true)
	m.LoginAttempt("admin", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.casesSubmitted.WithLabelValues("physio", "routine")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.caseTransitions.WithLabelValues("submitted", "assigned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.caseAssignments.WithLabelValues("pool")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.escalations.WithLabelValues("raised", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.complianceFlags.WithLabelValues("raised", "critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxDeliveries.WithLabelValues("case.completed", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("pool_sla_sweep", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("admin", "false")))
}

func TestMetrics_HTTP(t *testing.T) {
	m := NewMetrics()

	done := m.HTTPStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done("GET", "/api/v1/admin/cases", http.StatusOK)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
	m.HTTPStarted()("GET", "", http.StatusNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/admin/cases", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.CaseTransitioned("assigned", "in_progress")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `pathway_cases_transitions_total{from="assigned",to="in_progress"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CaseSubmitted("a", "b")
		m.CaseTransitioned("a", "b")
		m.CaseAssigned("direct")
		m.EscalationEvent("raised", "low")
		m.ComplianceFlagEvent("cleared", "low")
		m.ObserveDelivery("x", "sent")
		m.JobRun("job", time.Second, false)
		m.LoginAttempt("pd", true)
		m.HTTPStarted()("GET", "/", 200)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
