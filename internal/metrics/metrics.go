package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics on a private registry.
type Metrics struct {
	Registry         *prometheus.Registry
	MatchTransitions *prometheus.CounterVec
	FraudChecks      *prometheus.CounterVec
	EscrowOperations *prometheus.CounterVec
	AppLogWrites     *prometheus.CounterVec
}

// New creates the service metrics under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		MatchTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_transitions_total",
			Help:      "Match status transitions by source and target status",
		}, []string{"from", "to"}),
		FraudChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fraud_checks_total",
			Help:      "Fraud check verdicts by intent",
		}, []string{"intent", "verdict"}),
		EscrowOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escrow_operations_total",
			Help:      "Payment processor calls by operation and result",
		}, []string{"operation", "result"}),
		AppLogWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "app_log_writes_total",
			Help:      "Application log writes by level and result",
		}, []string{"level", "result"}),
	}
}

// Transition records a match status change.
func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.MatchTransitions.WithLabelValues(from, to).Inc()
}

// FraudVerdict records a fraud check outcome.
func (m *Metrics) FraudVerdict(intent string, allowed, review bool) {
	if m == nil {
		return
	}
	verdict := "allow"
	switch {
	case !allowed:
		verdict = "deny"
	case review:
		verdict = "override"
	}
	m.FraudChecks.WithLabelValues(intent, verdict).Inc()
}

// Escrow records a payment processor call.
func (m *Metrics) Escrow(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EscrowOperations.WithLabelValues(operation, result).Inc()
}

// AppLog records an application log write.
func (m *Metrics) AppLog(level string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.AppLogWrites.WithLabelValues(level, result).Inc()
}
