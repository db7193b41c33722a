package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		broadcastMediaTotal,
		candidateSelectionsTotal,
		ledgerAppendsTotal,
		ledgerSize,
		scheduledRunsTotal,
	)
}

var (
	broadcastMediaTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_media_total",
			Help: "Scheduled media posts by kind and outcome.",
		},
		[]string{"kind", "status"}, // status: 'sent', 'failed', 'unsupported'
	)

	candidateSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_selections_total",
			Help: "Random candidate selections by result.",
		},
		[]string{"result"}, // 'selected', 'exhausted', 'error'
	)

	ledgerAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_appends_total",
			Help: "Ledger writes by result.",
		},
		[]string{"result"}, // 'recorded', 'duplicate', 'error'
	)

	ledgerSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_size",
			Help: "Number of media paths recorded as sent at the last load.",
		},
	)

	scheduledRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_runs_total",
			Help: "Schedule entry executions by entry name and result.",
		},
		[]string{"schedule", "result"}, // 'ok', 'failed'
	)
)

func IncBroadcast(kind, status string) {
	broadcastMediaTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func IncSelection(result string) {
	candidateSelectionsTotal.WithLabelValues(norm(result)).Inc()
}

func IncLedgerAppend(result string) {
	ledgerAppendsTotal.WithLabelValues(norm(result)).Inc()
}

func SetLedgerSize(n int) {
	ledgerSize.Set(float64(n))
}

func IncScheduledRun(schedule, result string) {
	scheduledRunsTotal.WithLabelValues(schedule, norm(result)).Inc()
}
