package alerts

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NewAlertUnconsumedTransfer = func(reg prometheus.Registerer, chainID uint16) *prometheus.GaugeVec {
		return promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "alert",
			Subsystem:   "bridge",
			Name:        "unconsumed_transfer",
			Help:        "Shows posted transfer VAAs that were not completed, the value is the age in seconds.",
			ConstLabels: prometheus.Labels{"chain_id": strconv.Itoa(int(chainID))},
		}, []string{"emitter_chain", "emitter_address", "sequence"})
	}
	NewAlertGuardianSetExpiring = func(reg prometheus.Registerer, chainID uint16) *prometheus.GaugeVec {
		return promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "alert",
			Subsystem:   "bridge",
			Name:        "guardian_set_expiring",
			Help:        "Shows superseded guardian sets that still verify VAAs, the value is the number of seconds left.",
			ConstLabels: prometheus.Labels{"chain_id": strconv.Itoa(int(chainID))},
		}, []string{"guardian_set_index"})
	}
)
