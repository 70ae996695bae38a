package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the assistant. A nil
// *Metrics is a valid no-op receiver so subsystems can be tested without
// touching the global registry.
type Metrics struct {
	ChallengeOutcomes *prometheus.CounterVec
	QuizOutcomes      *prometheus.CounterVec
	GatewayEvents     *prometheus.CounterVec
	ProxyChecks       *prometheus.CounterVec
	HandlerErrors     *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ChallengeOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenge_outcomes_total",
			Help:      "Verification challenge outcomes by result.",
		}, []string{"outcome"}),
		QuizOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_outcomes_total",
			Help:      "Guessing game outcomes by result.",
		}, []string{"outcome"}),
		GatewayEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_events_total",
			Help:      "Gateway dispatch events by type.",
		}, []string{"type"}),
		ProxyChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_checks_total",
			Help:      "Proxy batch checks by result.",
		}, []string{"result"}),
		HandlerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Event handler failures by subsystem.",
		}, []string{"subsystem"}),
	}
}

func (m *Metrics) IncChallengeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ChallengeOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncQuizOutcome(outcome string) {
	if m == nil {
		return
	}
	m.QuizOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncGatewayEvent(eventType string) {
	if m == nil {
		return
	}
	m.GatewayEvents.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncProxyCheck(result string) {
	if m == nil {
		return
	}
	m.ProxyChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) IncHandlerError(subsystem string) {
	if m == nil {
		return
	}
	m.HandlerErrors.WithLabelValues(subsystem).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
