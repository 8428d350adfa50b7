package transactions

import (
	"math"

	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/shared/params"
)

// Fee computes the transfer fee for amount to the destination chain:
// baseFee + amount×feeBps/10000, with the per-chain basis-point override.
func Fee(amount, destChainID uint64) (uint64, error) {
	cfg := params.BridgeConfig()
	bps := cfg.FeeBpsFor(destChainID)
	// Split form avoids overflow on amount*bps while staying exact.
	variable := amount/10000*bps + amount%10000*bps/10000
	fee, ok := safeAdd(cfg.BaseFee, variable)
	if !ok {
		return 0, types.ErrAmountOverflow
	}
	return fee, nil
}

func safeAdd(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}
