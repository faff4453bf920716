package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	CDMLookups    *prometheus.CounterVec
	OFPFetches    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	DeadServers   prometheus.Gauge
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CDMLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cdm_lookups_total",
			Help:      "The total number of CDM lookups by outcome",
		}, []string{"status"}),
		OFPFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ofp_fetches_total",
			Help:      "The total number of OFP fetches by outcome",
		}, []string{"status"}),
		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time taken by upstream fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pipeline"}),
		DeadServers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cdm_dead_servers",
			Help:      "Number of CDM providers marked dead after exhausting retries",
		}),
	}
}
