package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	sagaRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_saga_runs_total",
		Help: "Provisioning saga runs by saga and result",
	}, []string{"saga", "result"})

	sagaDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orgconsole_saga_duration_seconds",
		Help:    "Duration of provisioning saga runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"saga", "result"})

	compensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_saga_compensations_total",
		Help: "Compensating actions by saga, step and result",
	}, []string{"saga", "step", "result"})

	membershipDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_membership_decisions_total",
		Help: "Membership invariant checks by path and outcome",
	}, []string{"path", "outcome"})

	adminOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_admin_operations_total",
		Help: "Administrative membership operations by action and result",
	}, []string{"action", "result"})

	danglingActiveTenants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orgconsole_dangling_active_tenants",
		Help: "Profiles whose active organization has no matching membership",
	})

	webhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgconsole_webhook_deliveries_total",
		Help: "Outbound audit webhook deliveries by final result",
	}, []string{"result"})

	expiredSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orgconsole_expired_subscriptions",
		Help: "Organizations whose subscription window has ended",
	})
)

func ObserveHTTPRequest(method, route, status string) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
}

func ObserveSaga(saga, result string, d time.Duration) {
	sagaRuns.WithLabelValues(saga, result).Inc()
	sagaDuration.WithLabelValues(saga, result).Observe(d.Seconds())
}

func IncCompensation(saga, step, result string) {
	compensations.WithLabelValues(saga, step, result).Inc()
}

func IncMembershipDecision(path, outcome string) {
	membershipDecisions.WithLabelValues(path, outcome).Inc()
}

func IncAdminOperation(action, result string) {
	adminOperations.WithLabelValues(action, result).Inc()
}

func IncWebhookDelivery(result string) {
	webhookDeliveries.WithLabelValues(result).Inc()
}

func SetDanglingActiveTenants(n int) {
	danglingActiveTenants.Set(float64(n))
}

func SetExpiredSubscriptions(n int) {
	expiredSubscriptions.Set(float64(n))
}

// Result maps an error to a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
