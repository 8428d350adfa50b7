package attestations

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attestationsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_attestations_processed_total",
		Help: "The number of attestations and fail votes recorded on the ledger.",
	})
	duplicateAttestationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_duplicate_attestations_total",
		Help: "The number of attestation submissions rejected as duplicates.",
	})
)
