package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "paywatch",
		Subsystem: "monitor",
		Name:      "active_sessions",
		Help:      "Number of addresses currently being monitored.",
	})
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paywatch",
		Subsystem: "monitor",
		Name:      "polls_total",
		Help:      "Count of poll cycles by provider and result.",
	}, []string{"provider", "result"})
	statusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paywatch",
		Subsystem: "monitor",
		Name:      "status_transitions_total",
		Help:      "Count of payment status transitions.",
	}, []string{"status"})
	sessionsEndedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paywatch",
		Subsystem: "monitor",
		Name:      "sessions_ended_total",
		Help:      "Count of sessions torn down, by reason.",
	}, []string{"reason"})
)

// SessionStarted records a new active session.
func SessionStarted() {
	activeSessions.Inc()
}

// SessionEnded records a session teardown with its reason
// ("confirmed", "failed", "timeout", "retries", "stopped", "shutdown").
func SessionEnded(reason string) {
	activeSessions.Dec()
	sessionsEndedTotal.WithLabelValues(reason).Inc()
}

// ObservePoll records one poll cycle against a provider.
func ObservePoll(providerName string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	pollsTotal.WithLabelValues(providerName, result).Inc()
}

// StatusTransition records a session entering a new status.
func StatusTransition(status string) {
	statusTransitionsTotal.WithLabelValues(status).Inc()
}
