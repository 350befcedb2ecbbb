package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bridge",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
	}, []string{"query"})
	TxConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "db",
		Name:      "tx_conflicts_total",
		Help:      "Serializable transactions aborted by a concurrent write.",
	})
)

func ObserveDuration(query string) func() time.Duration {
	return prometheus.NewTimer(QueryDurations.WithLabelValues(query)).ObserveDuration
}
