package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "store_up",
		Help: "Whether the last backing store probe succeeded (1) or failed (0).",
	})

	storeProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_probes_total",
		Help: "Total number of backing store probes, by result.",
	}, []string{"result"})

	storeQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_query_duration_seconds",
		Help:    "Duration of backing store queries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func SetStoreUp(up bool) {
	if up {
		storeUp.Set(1)
		storeProbesTotal.WithLabelValues("success").Inc()
		return
	}
	storeUp.Set(0)
	storeProbesTotal.WithLabelValues("failure").Inc()
}

func ObserveQueryDuration(operation string, d time.Duration) {
	storeQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
}
