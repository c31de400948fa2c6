package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordsObservations(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransition("submit_cap", "Pending Verification")
	m.ObserveTransition("submit_cap", "Pending Verification")
	m.ObserveNotification("new_car", false)
	m.ObserveDegradedLoad("risks")
	m.SetComplianceScore(72)

	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("submit_cap", "Pending Verification")); got != 2 {
		t.Fatalf("transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Notifications.WithLabelValues("new_car", "false")); got != 1 {
		t.Fatalf("notifications = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DegradedLoads.WithLabelValues("risks")); got != 1 {
		t.Fatalf("degraded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ComplianceScore); got != 72 {
		t.Fatalf("score = %v, want 72", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveTransition("raise_car", "Open")
	m.ObserveNotification("new_car", true)
	m.ObserveDegradedLoad("risks")
	m.SetComplianceScore(10)
}
