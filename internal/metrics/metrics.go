package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Refresh pipeline
	RefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "country_refreshes_total",
			Help: "Total refresh runs by outcome",
		},
		[]string{"status"}, // success|aborted|failed
	)
	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "country_refresh_duration_seconds",
			Help:    "End-to-end refresh duration",
			Buckets: prometheus.DefBuckets,
		},
	)
	SourceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "country_source_failures_total",
			Help: "External source fetch failures",
		},
		[]string{"source"},
	)

	// Cache
	CountriesCached = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "countries_cached",
			Help: "Countries currently persisted",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RefreshesTotal)
	prometheus.MustRegister(RefreshDuration)
	prometheus.MustRegister(SourceFailures)
	prometheus.MustRegister(CountriesCached)
}
