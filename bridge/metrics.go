package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VAAsPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Name:      "vaa_posted_total",
		Help:      "Number of VAA post attempts by result.",
	}, []string{"result"})
	MessagesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bridge",
		Name:      "messages_published_total",
		Help:      "Number of messages assigned a sequence by the message bus.",
	})
	Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Name:      "transfers_total",
		Help:      "Number of outbound locks and inbound completions by result.",
	}, []string{"direction", "result"})
	CustodyLocked = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Name:      "custody_locked",
		Help:      "Amount held in the custody vault of the particular token.",
	}, []string{"token"})
	ActiveGuardianSetIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bridge",
		Name:      "active_guardian_set_index",
		Help:      "Index of the guardian set currently used for new VAAs.",
	})
)

const (
	directionOutbound = "outbound"
	directionInbound  = "inbound"
)
