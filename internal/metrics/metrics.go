package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timelog_session_transitions_total",
		Help: "Timer operations by operation and result",
	}, []string{"op", "result"})

	recoveryOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timelog_recovery_outcomes_total",
		Help: "Crash recovery evaluations by outcome",
	}, []string{"outcome"})

	manualEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timelog_manual_entries_total",
		Help: "Manual entry submissions by result",
	}, []string{"result"})
)

func RecordTransition(op, result string) {
	sessionTransitions.WithLabelValues(op, result).Inc()
}

func RecordRecovery(outcome string) {
	recoveryOutcomes.WithLabelValues(outcome).Inc()
}

func RecordManualEntry(result string) {
	manualEntries.WithLabelValues(result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
