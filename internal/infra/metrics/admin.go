package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(adminRequestsTotal) }

var adminRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_requests_total",
		Help: "Tracks admin API requests by route and auth outcome.",
	},
	[]string{"route", "status"}, // status: 'authorized', 'unauthorized', 'forbidden'
)

func IncAdminRequest(route, status string) {
	adminRequestsTotal.WithLabelValues(norm(route), norm(status)).Inc()
}
