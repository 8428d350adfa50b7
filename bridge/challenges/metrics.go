package challenges

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	challengesOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_challenges_opened_total",
		Help: "The number of challenges opened against validators.",
	})
	challengesSucceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_challenges_succeeded_total",
		Help: "The number of challenges resolved against the validator.",
	})
	challengesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_challenges_failed_total",
		Help: "The number of challenges resolved in the validator's favor.",
	})
	insuranceFundCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_insurance_fund_credited_total",
		Help: "The total slashed amount credited to the insurance fund.",
	})
)
