// Package metrics exposes the process's Prometheus metrics. The tool-call
// counter and histogram are updated at one place, where the dispatcher turns
// a handler's result into a result envelope; the reservation-conflict and
// mailbox counters are incremented by the reserve/msg/broadcast handlers,
// and the sweeper counters by the Background Sweeper.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bv",
		Name:      "tool_calls_total",
		Help:      "Tool dispatcher calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	ToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bv",
		Name:      "tool_call_duration_seconds",
		Help:      "Tool dispatcher call latency by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	ReservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bv",
		Name:      "reservation_conflicts_total",
		Help:      "Reservation attempts that resolved to a conflict.",
	})

	MailboxMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bv",
		Name:      "mailbox_messages_sent_total",
		Help:      "Messages published, by scope.",
	}, []string{"scope"})

	SweeperRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bv",
		Name:      "sweeper_runs_total",
		Help:      "Background sweeper passes completed.",
	})

	SweeperExpiredReservations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bv",
		Name:      "sweeper_expired_reservations_total",
		Help:      "Reservations removed by the background sweeper as expired.",
	})
)

// Outcome labels used with ToolCalls.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ObserveToolCall records one dispatcher invocation. Dispatch calls it once
// the handler has returned, passing the time captured before the handler ran.
func ObserveToolCall(operation string, started time.Time, isError bool) {
	outcome := OutcomeOK
	if isError {
		outcome = OutcomeError
	}
	ToolCalls.WithLabelValues(operation, outcome).Inc()
	ToolDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
