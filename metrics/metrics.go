// Package metrics exposes the prometheus collectors this core updates:
// session build outcomes, load-balance selections, version-probe state,
// and relcache memory footprint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SessionBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolcore_session_builds_total",
			Help: "Total session build attempts by outcome (ok, or an error kind).",
		},
		[]string{"outcome"},
	)

	LoadBalanceSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolcore_load_balance_selections_total",
			Help: "Total load-balance node selections by selected node id.",
		},
		[]string{"node_id"},
	)

	PgVersionProbed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "poolcore_pgversion_probed",
			Help: "1 once the backend version has been probed and cached, 0 until then.",
		},
	)

	RelcacheMemoryBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poolcore_relcache_memory_bytes",
			Help: "Estimated deep memory footprint of a relation cache, by cache name.",
		},
		[]string{"cache"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionBuildsTotal,
		LoadBalanceSelectionsTotal,
		PgVersionProbed,
		RelcacheMemoryBytes,
	)
}
