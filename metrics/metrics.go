package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pnodedash/models"
)

// OutcomeSuccess labels gateway calls that returned pods.
const OutcomeSuccess = "success"

var (
	gatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pnode_gateway_requests_total",
		Help: "pRPC gateway calls by outcome (success or error kind)",
	}, []string{"outcome"})

	gatewayDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pnode_gateway_request_duration_seconds",
		Help:    "Duration of pRPC gateway calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	})

	dashboardNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pnode_dashboard_nodes",
		Help: "Rows per status in the last dataset served",
	}, []string{"status"})

	fallbackServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pnode_dashboard_fallback_total",
		Help: "Times the synthetic dataset was served instead of live data",
	})
)

// ObserveGatewayCall records one gateway call. err is nil on success.
func ObserveGatewayCall(err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = models.ErrKindUnknown.String()
		if gwErr, ok := models.AsGatewayError(err); ok {
			outcome = gwErr.Kind.String()
		}
	}
	gatewayRequests.WithLabelValues(outcome).Inc()
	gatewayDuration.Observe(elapsed.Seconds())
}

// SetStatusCounts publishes the per-status row counts of a served dataset.
func SetStatusCounts(stats models.NetworkStats) {
	dashboardNodes.WithLabelValues(string(models.StatusActive)).Set(float64(stats.ActiveNodes))
	dashboardNodes.WithLabelValues(string(models.StatusInactive)).Set(float64(stats.InactiveNodes))
	dashboardNodes.WithLabelValues(string(models.StatusSyncing)).Set(float64(stats.SyncingNodes))
	dashboardNodes.WithLabelValues(string(models.StatusUnknown)).Set(float64(stats.UnknownNodes))
}

func IncFallback() {
	fallbackServed.Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
