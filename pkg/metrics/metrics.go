// Package metrics 定义推荐服务的 Prometheus 指标。
package metrics

import "github.com/prometheus/client_golang/prometheus"

// 推荐路径
const (
	PathPrimary  = "primary"
	PathFallback = "fallback"
	PathEmpty    = "empty"
	PathError    = "error"
)

var (
	RecommendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shoprec_recommend_requests_total",
		Help: "Recommendation requests by result path (primary, fallback, empty, error).",
	}, []string{"path"})

	RecommendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shoprec_recommend_latency_seconds",
		Help:    "Latency of a recommendation request including the catalog fetch.",
		Buckets: prometheus.DefBuckets,
	})

	PreferencePersistErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shoprec_preference_persist_errors_total",
		Help: "Preference profile writes that failed and were swallowed.",
	})

	CatalogErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shoprec_catalog_errors_total",
		Help: "Catalog collaborator failures by operation.",
	}, []string{"op"})
)

// MustRegister 把全部指标注册到 reg。
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(RecommendRequests, RecommendLatency, PreferencePersistErrors, CatalogErrors)
}
