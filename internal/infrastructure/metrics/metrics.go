package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"aeroqualify/internal/ports"
)

// Metrics records CAPA lifecycle observations. A nil *Metrics is a no-op.
type Metrics struct {
	Transitions     *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	DegradedLoads   *prometheus.CounterVec
	ComplianceScore prometheus.Gauge
}

var _ ports.Metrics = (*Metrics)(nil)

// New registers the metrics on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aeroqualify_capa_transitions_total",
			Help: "CAPA lifecycle writes by operation and resulting CAR status",
		}, []string{"operation", "status"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aeroqualify_notifications_total",
			Help: "Notification attempts by event type and outcome",
		}, []string{"event", "delivered"}),
		DegradedLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aeroqualify_snapshot_degraded_total",
			Help: "Snapshot loads where a collection failed and was treated as empty",
		}, []string{"collection"}),
		ComplianceScore: factory.NewGauge(prometheus.GaugeOpts{
			Name: "aeroqualify_compliance_score",
			Help: "Most recently computed compliance score (0-100)",
		}),
	}
}

func (m *Metrics) ObserveTransition(operation string, status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) ObserveNotification(event string, delivered bool) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(event, strconv.FormatBool(delivered)).Inc()
}

func (m *Metrics) ObserveDegradedLoad(collection string) {
	if m == nil {
		return
	}
	m.DegradedLoads.WithLabelValues(collection).Inc()
}

func (m *Metrics) SetComplianceScore(total int) {
	if m == nil {
		return
	}
	m.ComplianceScore.Set(float64(total))
}
