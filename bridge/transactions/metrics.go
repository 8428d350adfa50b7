package transactions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsInitiatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_transactions_initiated_total",
		Help: "The number of bridge transactions initiated.",
	})
	transactionsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_transactions_completed_total",
		Help: "The number of bridge transactions completed by quorum.",
	})
	transactionsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_transactions_failed_total",
		Help: "The number of bridge transactions failed by quorum vote.",
	})
	transactionsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_transactions_cancelled_total",
		Help: "The number of bridge transactions cancelled by users after timeout.",
	})
	lockedAmountGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_locked_amount",
		Help: "The total principal plus fees locked in pending transactions.",
	})
)
