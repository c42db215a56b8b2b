package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the application's Prometheus metrics.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	ConnectionsTotal  *prometheus.CounterVec
	RecordsCreated    prometheus.Counter
	ShareLinksIssued  prometheus.Counter
	AIAnalysesTotal   *prometheus.CounterVec
	GuardDenialsTotal prometheus.Counter
}

// NewCollector registers all metrics against the given registerer. Tests pass
// a fresh registry; main passes prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthvault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "healthvault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		ConnectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthvault",
			Subsystem: "ledger",
			Name:      "connections_total",
			Help:      "Connection workflow events by outcome (requested, approved, denied).",
		}, []string{"outcome"}),

		RecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "healthvault",
			Subsystem: "records",
			Name:      "created_total",
			Help:      "Total health records appended.",
		}),

		ShareLinksIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "healthvault",
			Subsystem: "share",
			Name:      "links_issued_total",
			Help:      "Total share links issued.",
		}),

		AIAnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthvault",
			Subsystem: "ai",
			Name:      "analyses_total",
			Help:      "AI analysis requests by result (ok, unavailable).",
		}, []string{"result"}),

		GuardDenialsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "healthvault",
			Subsystem: "guard",
			Name:      "denials_total",
			Help:      "Cross-account record reads denied by the access guard.",
		}),
	}
}

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
