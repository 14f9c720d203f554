// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jidokhae",
		Name:      "registrations_total",
		Help:      "Registration outcomes by result.",
	}, []string{"result"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jidokhae",
		Name:      "notifications_total",
		Help:      "Notification send attempts by template and status.",
	}, []string{"template", "status"})

	CronRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jidokhae",
		Name:      "cron_runs_total",
		Help:      "Scheduled job runs by job and outcome.",
	}, []string{"job", "outcome"})
)

// Registration result labels.
const (
	ResultCreated   = "created"
	ResultConfirmed = "confirmed"
	ResultCancelled = "cancelled"
	ResultFull      = "full"
	ResultMismatch  = "amount_mismatch"
)

// Cron outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
