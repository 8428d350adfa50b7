package challenges_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thresholdlabs/threshbridge/bridge/attestations"
	"github.com/thresholdlabs/threshbridge/bridge/challenges"
	"github.com/thresholdlabs/threshbridge/bridge/tokens"
	"github.com/thresholdlabs/threshbridge/bridge/transactions"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/bridge/validators"
	"github.com/thresholdlabs/threshbridge/db/kv"
	"github.com/thresholdlabs/threshbridge/shared/params"
)

var (
	owner      = common.HexToAddress("0x0000000000000000000000000000000000000aaa")
	arbitrator = common.HexToAddress("0x0000000000000000000000000000000000000bbb")
	user       = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	challenger = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	voter1     = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	voter2     = common.HexToAddress("0x00000000000000000000000000000000000000d2")
)

type fixture struct {
	service  *challenges.Service
	txs      *transactions.Service
	registry *validators.Registry
	ledger   *tokens.InMemoryLedger
	store    *kv.Store
	vals     []common.Address
	now      time.Time
	tx       *types.BridgeTransaction
}

// setup wires the full challenge path: a completed bridge transaction
// attested by two validators, a funded challenger, and community voters.
func setup(t *testing.T, communityVoting bool) *fixture {
	prev := params.BridgeConfig()
	t.Cleanup(func() { params.OverrideBridgeConfig(prev) })
	cfg := *params.MinimalSpecConfig()
	cfg.CommunityVotingEnabled = communityVoting
	params.OverrideBridgeConfig(&cfg)

	store, err := kv.NewKVStore(t.TempDir(), &kv.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	f := &fixture{
		ledger: tokens.NewInMemoryLedger(),
		store:  store,
		now:    time.Unix(1_700_000_000, 0),
	}
	clock := func() time.Time { return f.now }

	registry, err := validators.NewRegistry(context.Background(), &validators.Config{
		Owner: owner, Ledger: f.ledger, Database: store, Clock: clock,
	})
	require.NoError(t, err)
	f.registry = registry

	var sigs [][]byte
	for i := 0; i < 2; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		addr := crypto.PubkeyToAddress(key.PublicKey)
		f.vals = append(f.vals, addr)
		f.ledger.Mint(addr, cfg.MinStake)
		require.NoError(t, registry.AddValidator(owner, addr, cfg.MinStake))

		tx := &types.BridgeTransaction{Nonce: 1, User: user, Amount: 10_000, SourceChainID: cfg.SourceChainID, DestChainID: 137}
		sig, err := attestations.Sign(tx, key)
		require.NoError(t, err)
		sigs = append(sigs, sig)
	}
	f.ledger.Mint(user, 1_000_000)
	f.ledger.Mint(challenger, 1_000)
	f.ledger.Mint(voter1, 1_000)
	f.ledger.Mint(voter2, 3_000)

	attLedger, err := attestations.NewLedger(context.Background(), store)
	require.NoError(t, err)
	txService, err := transactions.NewService(context.Background(), &transactions.Config{
		Ledger:       f.ledger,
		Registry:     registry,
		Attestations: attLedger,
		Strategy:     attestations.NewStrategy(clock),
		Database:     store,
		Clock:        clock,
	})
	require.NoError(t, err)
	f.txs = txService

	tx, err := txService.Initiate(user, 10_000, 137)
	require.NoError(t, err)
	f.tx = tx
	for i := 0; i < 2; i++ {
		require.NoError(t, txService.Attest(f.vals[i], tx.Nonce, &attestations.Submission{Signature: sigs[i]}))
	}
	got, err := txService.Transaction(tx.Nonce)
	require.NoError(t, err)
	require.Equal(t, types.Completed, got.Status)

	service, err := challenges.NewService(context.Background(), &challenges.Config{
		Arbitrator:   arbitrator,
		Ledger:       f.ledger,
		Registry:     registry,
		Transactions: txService,
		Database:     store,
		Clock:        clock,
	})
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *fixture) open(t *testing.T) *types.Challenge {
	t.Helper()
	c, err := f.service.OpenChallenge(challenger, f.vals[0], f.tx.Nonce, [32]byte{0xde, 0xad})
	require.NoError(t, err)
	return c
}

func TestOpenChallenge(t *testing.T) {
	f := setup(t, false)

	c := f.open(t)
	assert.Equal(t, uint64(1), c.ID)
	assert.Equal(t, params.BridgeConfig().ChallengeStake, c.Stake)
	assert.Equal(t, c.Stake, f.ledger.BalanceOf(tokens.ChallengeVault), "challenger stake is escrowed")
	assert.False(t, c.Resolved)
}

func TestOpenChallengeRejections(t *testing.T) {
	f := setup(t, false)

	_, err := f.service.OpenChallenge(common.Address{}, f.vals[0], f.tx.Nonce, [32]byte{})
	assert.Equal(t, types.ErrInvalidAddress, err)

	_, err = f.service.OpenChallenge(challenger, challenger, f.tx.Nonce, [32]byte{})
	assert.Equal(t, types.ErrNotRegistered, err, "challenge target must be a validator")

	_, err = f.service.OpenChallenge(challenger, f.vals[0], 99, [32]byte{})
	assert.Equal(t, types.ErrUnknownTransaction, err)

	broke := common.HexToAddress("0x00000000000000000000000000000000000000fe")
	_, err = f.service.OpenChallenge(broke, f.vals[0], f.tx.Nonce, [32]byte{})
	assert.Equal(t, types.ErrInsufficientBalance, err)
}

func TestResolveChallengeSuccessful(t *testing.T) {
	f := setup(t, false)
	c := f.open(t)
	cfg := params.BridgeConfig()

	v, err := f.registry.Validator(f.vals[0])
	require.NoError(t, err)
	stakeBefore := v.Stake
	challengerBefore := f.ledger.BalanceOf(challenger)

	// Too early for the arbitrator to rule.
	err = f.service.ResolveChallenge(arbitrator, c.ID, true)
	assert.Equal(t, types.ErrChallengePeriodActive, err)

	f.now = f.now.Add(cfg.ChallengePeriod)
	require.NoError(t, f.service.ResolveChallenge(arbitrator, c.ID, true))

	resolved, err := f.service.Challenge(c.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.True(t, resolved.Succeeded)

	// Slash amount and its exact split between reward and insurance.
	slashed := stakeBefore / 10000 * cfg.SlashBps
	slashed += stakeBefore % 10000 * cfg.SlashBps / 10000
	reward := slashed/10000*cfg.ChallengerRewardBps + slashed%10000*cfg.ChallengerRewardBps/10000
	assert.Equal(t, challengerBefore+reward+c.Stake, f.ledger.BalanceOf(challenger), "reward plus returned stake")
	assert.Equal(t, slashed-reward, f.ledger.BalanceOf(tokens.InsuranceFund), "no rounding leak")
	assert.Equal(t, uint64(0), f.ledger.BalanceOf(tokens.ChallengeVault))

	v, err = f.registry.Validator(f.vals[0])
	require.NoError(t, err)
	assert.Equal(t, stakeBefore-slashed, v.Stake)
	assert.Equal(t, uint64(1), v.SlashCount)

	// A completed transaction with a slashed attester is flagged untrusted.
	tx, err := f.txs.Transaction(f.tx.Nonce)
	require.NoError(t, err)
	assert.True(t, tx.TrustRevoked)
}

func TestResolveChallengeFailed(t *testing.T) {
	f := setup(t, false)
	c := f.open(t)
	challengerBefore := f.ledger.BalanceOf(challenger)

	f.now = f.now.Add(params.BridgeConfig().ChallengePeriod)
	require.NoError(t, f.service.ResolveChallenge(arbitrator, c.ID, false))

	resolved, err := f.service.Challenge(c.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.False(t, resolved.Succeeded)
	assert.Equal(t, challengerBefore+c.Stake, f.ledger.BalanceOf(challenger), "stake returned, no reward")
	assert.Equal(t, uint64(0), f.ledger.BalanceOf(tokens.InsuranceFund))

	v, err := f.registry.Validator(f.vals[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v.SlashCount, "failed challenge must not slash")

	tx, err := f.txs.Transaction(f.tx.Nonce)
	require.NoError(t, err)
	assert.False(t, tx.TrustRevoked)
}

func TestResolveChallengeExactlyOnce(t *testing.T) {
	f := setup(t, false)
	c := f.open(t)

	f.now = f.now.Add(params.BridgeConfig().ChallengePeriod)
	require.NoError(t, f.service.ResolveChallenge(arbitrator, c.ID, true))

	err := f.service.ResolveChallenge(arbitrator, c.ID, true)
	assert.Equal(t, types.ErrAlreadyResolved, err)

	v, err := f.registry.Validator(f.vals[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.SlashCount, "resolution applies exactly once")
}

func TestResolveChallengeArbitratorOnly(t *testing.T) {
	f := setup(t, false)
	c := f.open(t)

	f.now = f.now.Add(params.BridgeConfig().ChallengePeriod)
	err := f.service.ResolveChallenge(challenger, c.ID, true)
	assert.Equal(t, types.ErrNotAuthorized, err)

	err = f.service.ResolveChallenge(arbitrator, 99, true)
	assert.Equal(t, types.ErrUnknownChallenge, err)
}

func TestVoteDisabledOnArbitratorPath(t *testing.T) {
	f := setup(t, false)
	c := f.open(t)
	err := f.service.Vote(voter1, c.ID, true)
	assert.Equal(t, types.ErrVotingDisabled, err)
}

func TestCommunityVoting(t *testing.T) {
	f := setup(t, true)
	c := f.open(t)

	require.NoError(t, f.service.Vote(voter1, c.ID, true))
	require.NoError(t, f.service.Vote(voter2, c.ID, false))

	err := f.service.Vote(voter1, c.ID, false)
	assert.Equal(t, types.ErrAlreadyVoted, err)

	got, err := f.service.Challenge(c.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), got.PowerForValidator)
	assert.Equal(t, uint64(3_000), got.PowerAgainstValidator)

	// Power below the minimum cannot vote.
	weak := common.HexToAddress("0x00000000000000000000000000000000000000d3")
	f.ledger.Mint(weak, params.BridgeConfig().MinVotingPower-1)
	err = f.service.Vote(weak, c.ID, true)
	assert.Equal(t, types.ErrInsufficientVotingPower, err)
}

func TestCommunityResolutionBySupermajority(t *testing.T) {
	f := setup(t, true)
	c := f.open(t)

	// 3000 of 4000 cast power (75%) against the validator clears the
	// 66.67% supermajority, allowing early resolution.
	require.NoError(t, f.service.Vote(voter1, c.ID, true))
	require.NoError(t, f.service.Vote(voter2, c.ID, false))

	require.NoError(t, f.service.ResolveChallenge(challenger, c.ID, false))
	got, err := f.service.Challenge(c.ID)
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.True(t, got.Succeeded, "tallies decide the outcome on the community path")
}

func TestCommunityResolutionWaitsWithoutSupermajority(t *testing.T) {
	f := setup(t, true)
	c := f.open(t)

	// Bring the voters to parity: 3000 for vs 3000 against leaves no side
	// with a supermajority of cast power.
	f.ledger.Mint(voter1, 2_000)
	require.NoError(t, f.service.Vote(voter1, c.ID, true))
	require.NoError(t, f.service.Vote(voter2, c.ID, false))

	err := f.service.ResolveChallenge(challenger, c.ID, false)
	assert.Equal(t, types.ErrChallengePeriodActive, err, "a split vote cannot resolve early")

	f.now = f.now.Add(params.BridgeConfig().ChallengePeriod)
	require.NoError(t, f.service.ResolveChallenge(challenger, c.ID, false))
	got, err := f.service.Challenge(c.ID)
	require.NoError(t, err)
	assert.False(t, got.Succeeded, "a tie favors the validator")
}

func TestVoteAfterPeriod(t *testing.T) {
	f := setup(t, true)
	c := f.open(t)

	f.now = f.now.Add(params.BridgeConfig().ChallengePeriod)
	err := f.service.Vote(voter1, c.ID, true)
	assert.Equal(t, types.ErrChallengePeriodOver, err)
}

func TestChallengesRestoreFromDatabase(t *testing.T) {
	f := setup(t, false)
	c := f.open(t)

	// A second service over the same database picks up the open challenge
	// and its id counter.
	restored, err := challenges.NewService(context.Background(), &challenges.Config{
		Arbitrator:   arbitrator,
		Ledger:       f.ledger,
		Registry:     f.registry,
		Transactions: f.txs,
		Database:     f.store,
		Clock:        func() time.Time { return f.now },
	})
	require.NoError(t, err)

	got, err := restored.Challenge(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Challenger, got.Challenger)

	next, err := restored.OpenChallenge(challenger, f.vals[1], f.tx.Nonce, [32]byte{})
	require.NoError(t, err)
	assert.Equal(t, c.ID+1, next.ID)
}
