package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramUpdatesReceivedTotal,
		relaySubmissionsTotal,
		stateLookupsTotal,
		archiveDownloadsTotal,
		statesExpiredTotal,
	)
}

var (
	telegramUpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Counts incoming updates by type (command, text, media, other).",
		},
		[]string{"type"},
	)

	relaySubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_submissions_total",
			Help: "User submissions relayed to the moderator chat by kind and outcome.",
		},
		[]string{"kind", "status"}, // kind: 'photo', 'video', 'feedback'
	)

	stateLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_state_lookups_total",
			Help: "Conversation state lookups by store and result.",
		},
		[]string{"store", "result"}, // result: 'hit', 'miss', 'expired'
	)

	archiveDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_downloads_total",
			Help: "Submission archive downloads by result.",
		},
		[]string{"result"}, // 'ok', 'failed', 'dropped'
	)

	statesExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_states_expired_total",
			Help: "Conversation sessions purged by the sweeper after their TTL.",
		},
	)
)

func IncTelegramUpdate(kind string) {
	telegramUpdatesReceivedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncRelay(kind, status string) {
	relaySubmissionsTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func IncStateLookup(store, result string) {
	stateLookupsTotal.WithLabelValues(norm(store), norm(result)).Inc()
}

func IncArchiveDownload(result string) {
	archiveDownloadsTotal.WithLabelValues(norm(result)).Inc()
}

func AddStatesExpired(n int) {
	statesExpiredTotal.Add(float64(n))
}
