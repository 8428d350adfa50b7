// Package params defines the configurable parameters of the bridge:
// validator set sizing, attestation quorum, transfer bounds and fees,
// and the challenge/slashing economics.
package params

import (
	"time"
)

// BridgeChainConfig contains every tunable constant of the bridge core.
type BridgeChainConfig struct {
	// Validator set parameters.
	MinStake                uint64 // Minimum stake pledged at registration.
	MaxActiveValidators     uint64 // Bound on the active set, keeps quorum checks cheap.
	MinActiveValidators     uint64 // Floor below which removals are rejected.
	NeutralReputation       uint64 // Starting reputation for new validators.
	MaxReputation           uint64 // Upper clamp of the reputation scale.
	MinReputationToValidate uint64 // Eligibility floor for quorum counting.
	ReputationDecayPerDay   uint64 // Linear lazy decay rate per day of inactivity.
	ReputationFloor         uint64 // Auto-deactivation threshold after slashing.
	MaxSlashCount           uint64 // Auto-deactivation threshold on slash count.

	// Attestation parameters.
	AttestationThreshold uint64        // Absolute eligible-attester count required for quorum.
	AttestationWindow    time.Duration // Window after creation during which attestations are accepted; doubles as the cancel timeout.
	RevealWindow         time.Duration // Commit-reveal: window after a commit during which the reveal is accepted.
	CommitRevealEnabled  bool          // Selects the commit-reveal strategy over direct signatures.

	// Transfer parameters.
	SourceChainID     uint64
	SupportedChains   []uint64
	MinTransferAmount uint64
	MaxTransferAmount uint64
	BaseFee           uint64
	DefaultFeeBps     uint64            // Fee basis points applied when no per-chain override exists.
	ChainFeeBps       map[uint64]uint64 // Destination chain id -> fee basis points override.
	DailyVolumeLimit  uint64            // Total initiated principal allowed per volume epoch.
	VolumeEpoch       time.Duration     // Fixed epoch length for the volume counter.

	// Challenge and slashing parameters.
	ChallengeStake         uint64
	ChallengePeriod        time.Duration
	SlashBps               uint64 // Basis points of stake slashed on a successful challenge.
	MaxSlashBps            uint64 // Hard cap on SlashBps.
	ChallengerRewardBps    uint64 // Share of the slashed amount paid to the challenger; remainder funds insurance.
	ReputationSlashPenalty uint64 // Flat reputation deduction on a successful challenge.
	MinVotingPower         uint64 // Token balance required to vote on a challenge.
	SupermajorityBps       uint64 // Share of cast power allowing early resolution.
	CommunityVotingEnabled bool   // Community vote path instead of arbitrator ruling.
}

// FeeBpsFor returns the fee basis points configured for the destination
// chain, falling back to the default.
func (c *BridgeChainConfig) FeeBpsFor(destChainID uint64) uint64 {
	if bps, ok := c.ChainFeeBps[destChainID]; ok {
		return bps
	}
	return c.DefaultFeeBps
}

// ChainSupported reports whether the destination chain id is configured.
func (c *BridgeChainConfig) ChainSupported(destChainID uint64) bool {
	for _, id := range c.SupportedChains {
		if id == destChainID {
			return true
		}
	}
	return false
}

var mainnetBridgeConfig = &BridgeChainConfig{
	MinStake:                10_000 * 1e9,
	MaxActiveValidators:     21,
	MinActiveValidators:     4,
	NeutralReputation:       500,
	MaxReputation:           1000,
	MinReputationToValidate: 400,
	ReputationDecayPerDay:   5,
	ReputationFloor:         100,
	MaxSlashCount:           3,

	AttestationThreshold: 3,
	AttestationWindow:    24 * time.Hour,
	RevealWindow:         time.Hour,
	CommitRevealEnabled:  false,

	SourceChainID:     1,
	SupportedChains:   []uint64{56, 137, 43114},
	MinTransferAmount: 1 * 1e9,
	MaxTransferAmount: 1_000_000 * 1e9,
	BaseFee:           1e8,
	DefaultFeeBps:     30,
	ChainFeeBps:       map[uint64]uint64{43114: 20},
	DailyVolumeLimit:  10_000_000 * 1e9,
	VolumeEpoch:       24 * time.Hour,

	ChallengeStake:         100 * 1e9,
	ChallengePeriod:        48 * time.Hour,
	SlashBps:               1000,
	MaxSlashBps:            2000,
	ChallengerRewardBps:    5000,
	ReputationSlashPenalty: 100,
	MinVotingPower:         10 * 1e9,
	SupermajorityBps:       6667,
	CommunityVotingEnabled: false,
}

var bridgeConfig = mainnetBridgeConfig

// BridgeConfig retrieves the bridge chain config.
func BridgeConfig() *BridgeChainConfig {
	return bridgeConfig
}

// MainnetConfig returns the configuration used in the main network.
func MainnetConfig() *BridgeChainConfig {
	return mainnetBridgeConfig
}

// UseMainnetConfig for bridge services.
func UseMainnetConfig() {
	bridgeConfig = MainnetConfig()
}

// MinimalSpecConfig returns a config with small windows and thresholds,
// suitable for local development and tests.
func MinimalSpecConfig() *BridgeChainConfig {
	minimal := *mainnetBridgeConfig
	minimal.MinStake = 1000
	minimal.MaxActiveValidators = 8
	minimal.MinActiveValidators = 2
	minimal.AttestationThreshold = 2
	minimal.AttestationWindow = time.Minute
	minimal.RevealWindow = 30 * time.Second
	minimal.MinTransferAmount = 1
	minimal.MaxTransferAmount = 1_000_000
	minimal.BaseFee = 1
	minimal.DailyVolumeLimit = 10_000_000
	minimal.VolumeEpoch = time.Hour
	minimal.ChallengeStake = 100
	minimal.ChallengePeriod = time.Minute
	minimal.MinVotingPower = 10
	minimal.ChainFeeBps = map[uint64]uint64{43114: 20}
	return &minimal
}

// UseMinimalConfig for bridge services.
func UseMinimalConfig() {
	bridgeConfig = MinimalSpecConfig()
}

// OverrideBridgeConfig by replacing the config. The preferred pattern is to
// call BridgeConfig(), change the specific parameters, and then call
// OverrideBridgeConfig(c). Any subsequent calls to params.BridgeConfig()
// will return this new configuration.
func OverrideBridgeConfig(c *BridgeChainConfig) {
	bridgeConfig = c
}
