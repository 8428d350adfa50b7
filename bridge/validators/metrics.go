package validators

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeValidatorsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_active_validators",
		Help: "The number of validators currently counted toward quorum capacity.",
	})
	slashEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_slash_events_total",
		Help: "The number of stake slashes applied.",
	})
	stakeSlashedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_stake_slashed_total",
		Help: "The total amount of stake slashed.",
	})
)
