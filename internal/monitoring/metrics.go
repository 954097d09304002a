package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total tickets issued per event",
		},
		[]string{"event_id"},
	)

	admissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_decisions_total",
			Help: "Total admission decisions per event and outcome",
		},
		[]string{"event_id", "decision", "reason"},
	)

	ledgerRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_ledger_retries_total",
			Help: "Total audit ledger appends that needed the retry queue",
		},
	)

	ledgerDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_ledger_dropped_total",
			Help: "Total audit records dropped after exhausting retries",
		},
	)
)

func RecordTicketIssued(eventID string) {
	ticketsIssued.WithLabelValues(eventID).Inc()
}

func RecordAdmissionDecision(eventID, decision, reason string) {
	admissionDecisions.WithLabelValues(eventID, decision, reason).Inc()
}

func RecordLedgerRetry() {
	ledgerRetries.Inc()
}

func RecordLedgerDrop() {
	ledgerDropped.Inc()
}
