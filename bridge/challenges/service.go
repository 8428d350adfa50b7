// Package challenges lets any party dispute a validator's attestation
// within a challenge window, resolves the dispute by arbitrator ruling or
// community vote, and applies slashing, reputation penalties, and the
// challenger-reward / insurance-fund payout split.
package challenges

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/thresholdlabs/threshbridge/bridge/tokens"
	"github.com/thresholdlabs/threshbridge/bridge/transactions"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/bridge/validators"
	"github.com/thresholdlabs/threshbridge/db/iface"
	"github.com/thresholdlabs/threshbridge/shared/params"
)

// Config options for the challenge service.
type Config struct {
	Arbitrator   common.Address
	Ledger       tokens.Ledger
	Registry     *validators.Registry
	Transactions *transactions.Service
	Database     iface.Database
	Clock        func() time.Time
}

// Service owns the challenge table. A challenge resolves exactly once; all
// fund movements are computed and applied atomically with the resolution.
type Service struct {
	ctx        context.Context
	lock       sync.Mutex
	arbitrator common.Address
	ledger     tokens.Ledger
	registry   *validators.Registry
	txs        *transactions.Service
	db         iface.Database
	challenges map[uint64]*types.Challenge
	nextID     uint64
	now        func() time.Time
}

// NewService restores the challenge table from the database and returns a
// ready service.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	s := &Service{
		ctx:        ctx,
		arbitrator: cfg.Arbitrator,
		ledger:     cfg.Ledger,
		registry:   cfg.Registry,
		txs:        cfg.Transactions,
		db:         cfg.Database,
		challenges: make(map[uint64]*types.Challenge),
		now:        now,
	}
	stored, err := cfg.Database.Challenges(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not restore challenges")
	}
	for _, c := range stored {
		s.challenges[c.ID] = c
	}
	cd, err := cfg.Database.ChainData(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not restore chain data")
	}
	s.nextID = cd.NextChallengeID
	return s, nil
}

// OpenChallenge disputes validator's role in the referenced transaction.
// The challenger posts the configured stake, which is either returned (if
// the challenge fails) or returned plus a share of the slashed amount (if
// it succeeds) -- never both.
func (s *Service) OpenChallenge(challenger, validator common.Address, txNonce uint64, evidence [32]byte) (*types.Challenge, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if challenger == (common.Address{}) {
		return nil, types.ErrInvalidAddress
	}
	v, err := s.registry.Validator(validator)
	if err != nil {
		return nil, err
	}
	if !v.IsActive {
		return nil, types.ErrNotEligibleValidator
	}
	if _, err := s.txs.Transaction(txNonce); err != nil {
		return nil, err
	}
	stake := params.BridgeConfig().ChallengeStake
	if err := s.ledger.TransferFrom(challenger, tokens.ChallengeVault, stake); err != nil {
		return nil, err
	}

	id := s.nextID + 1
	c := &types.Challenge{
		ID:          id,
		Challenger:  challenger,
		Validator:   validator,
		TxNonce:     txNonce,
		Stake:       stake,
		Evidence:    evidence,
		CreatedTime: s.now().Unix(),
		Voted:       make(map[string]bool),
	}
	if err := s.db.SaveChallenge(s.ctx, c); err != nil {
		return nil, errors.Wrap(err, "could not persist challenge")
	}
	if err := s.db.SaveNextChallengeID(s.ctx, id); err != nil {
		return nil, errors.Wrap(err, "could not persist challenge counter")
	}
	s.nextID = id
	s.challenges[id] = c
	challengesOpenedTotal.Inc()
	log.WithField("challenge", id).
		WithField("validator", validator.Hex()).
		WithField("nonce", txNonce).
		Info("Challenge opened")
	cp := *c
	return &cp, nil
}

// Vote casts voter's token-weighted ballot on an open challenge. Only
// available on the community resolution path. One vote per account; voting
// closes when the period ends.
func (s *Service) Vote(voter common.Address, challengeID uint64, forValidator bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	cfg := params.BridgeConfig()
	if !cfg.CommunityVotingEnabled {
		return types.ErrVotingDisabled
	}
	c := s.challenges[challengeID]
	if c == nil {
		return types.ErrUnknownChallenge
	}
	if c.Resolved {
		return types.ErrAlreadyResolved
	}
	if s.periodElapsed(c) {
		return types.ErrChallengePeriodOver
	}
	power := s.ledger.BalanceOf(voter)
	if power < cfg.MinVotingPower {
		return types.ErrInsufficientVotingPower
	}
	if _, ok := c.Voted[voter.Hex()]; ok {
		return types.ErrAlreadyVoted
	}

	updated := cloneChallenge(c)
	updated.Voted[voter.Hex()] = forValidator
	if forValidator {
		updated.PowerForValidator += power
	} else {
		updated.PowerAgainstValidator += power
	}
	if err := s.db.SaveChallenge(s.ctx, updated); err != nil {
		return errors.Wrap(err, "could not persist challenge")
	}
	s.challenges[challengeID] = updated
	log.WithField("challenge", challengeID).
		WithField("voter", voter.Hex()).
		WithField("forValidator", forValidator).
		Debug("Challenge vote cast")
	return nil
}

// ResolveChallenge settles a challenge once its period has elapsed, or
// earlier on the community path when a supermajority of cast power agrees.
// On the arbitrator path the caller must be the arbitrator and ruling
// decides the outcome; on the community path anyone may trigger resolution
// and the tallies decide. On success the validator is slashed and the
// slashed amount is split between the challenger reward and the insurance
// fund with no rounding leak.
func (s *Service) ResolveChallenge(caller common.Address, challengeID uint64, ruling bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	cfg := params.BridgeConfig()
	c := s.challenges[challengeID]
	if c == nil {
		return types.ErrUnknownChallenge
	}
	if c.Resolved {
		return types.ErrAlreadyResolved
	}

	var successful bool
	if cfg.CommunityVotingEnabled {
		if !s.periodElapsed(c) && !s.supermajorityReached(c) {
			return types.ErrChallengePeriodActive
		}
		successful = c.PowerAgainstValidator > c.PowerForValidator
	} else {
		if caller != s.arbitrator {
			return types.ErrNotAuthorized
		}
		if !s.periodElapsed(c) {
			return types.ErrChallengePeriodActive
		}
		successful = ruling
	}

	updated := cloneChallenge(c)
	updated.Resolved = true
	updated.Succeeded = successful
	updated.ResolvedTime = s.now().Unix()

	if successful {
		slashed, err := s.registry.Slash(c.Validator, cfg.SlashBps, "successful challenge")
		if err != nil {
			return err
		}
		// Reward uses the split form to stay exact; the remainder,
		// including any rounding residue, funds insurance so that
		// reward + fund == slashed.
		reward := slashed/10000*cfg.ChallengerRewardBps + slashed%10000*cfg.ChallengerRewardBps/10000
		if reward > 0 {
			if err := s.ledger.Transfer(tokens.StakeVault, c.Challenger, reward); err != nil {
				return err
			}
		}
		if slashed-reward > 0 {
			if err := s.ledger.Transfer(tokens.StakeVault, tokens.InsuranceFund, slashed-reward); err != nil {
				return err
			}
		}
		if err := s.ledger.Transfer(tokens.ChallengeVault, c.Challenger, c.Stake); err != nil {
			return err
		}
		if err := s.txs.RevokeTrust(c.TxNonce); err != nil {
			log.WithError(err).WithField("nonce", c.TxNonce).Error("Could not revoke transaction trust")
		}
		challengesSucceededTotal.Inc()
		insuranceFundCredited.Add(float64(slashed - reward))
		log.WithField("challenge", challengeID).
			WithField("validator", c.Validator.Hex()).
			WithField("slashed", slashed).
			WithField("reward", reward).
			Warn("Challenge succeeded, validator slashed")
	} else {
		if err := s.ledger.Transfer(tokens.ChallengeVault, c.Challenger, c.Stake); err != nil {
			return err
		}
		challengesFailedTotal.Inc()
		log.WithField("challenge", challengeID).Info("Challenge failed, stake returned")
	}

	if err := s.db.SaveChallenge(s.ctx, updated); err != nil {
		return errors.Wrap(err, "could not persist challenge")
	}
	s.challenges[challengeID] = updated
	return nil
}

// Challenge returns a copy of the challenge with the given id.
func (s *Service) Challenge(id uint64) (*types.Challenge, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	c := s.challenges[id]
	if c == nil {
		return nil, types.ErrUnknownChallenge
	}
	cp := cloneChallenge(c)
	return cp, nil
}

// Challenges enumerates copies of every challenge in id order.
func (s *Service) Challenges() []*types.Challenge {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]*types.Challenge, 0, len(s.challenges))
	for _, c := range s.challenges {
		out = append(out, cloneChallenge(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) periodElapsed(c *types.Challenge) bool {
	return s.now().Sub(time.Unix(c.CreatedTime, 0)) >= params.BridgeConfig().ChallengePeriod
}

// supermajorityReached reports whether one side holds the configured share
// of all cast power, allowing resolution before the period ends.
func (s *Service) supermajorityReached(c *types.Challenge) bool {
	total := c.PowerForValidator + c.PowerAgainstValidator
	if total == 0 {
		return false
	}
	leading := c.PowerForValidator
	if c.PowerAgainstValidator > leading {
		leading = c.PowerAgainstValidator
	}
	threshold := total/10000*params.BridgeConfig().SupermajorityBps +
		total%10000*params.BridgeConfig().SupermajorityBps/10000
	return leading >= threshold
}

func cloneChallenge(c *types.Challenge) *types.Challenge {
	cp := *c
	cp.Voted = make(map[string]bool, len(c.Voted))
	for k, v := range c.Voted {
		cp.Voted[k] = v
	}
	return &cp
}
