// Package validators owns the staked validator set: registration, stake
// accounting, reputation scoring with lazy decay, slashing bookkeeping, and
// the eligibility rule used by quorum math.
package validators

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/thresholdlabs/threshbridge/bridge/tokens"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/db/iface"
	"github.com/thresholdlabs/threshbridge/shared/params"
)

// Config options for the validator registry.
type Config struct {
	Owner    common.Address
	Ledger   tokens.Ledger
	Database iface.Database
	// Clock is used for reputation decay and activity stamps. Defaults to
	// time.Now.
	Clock func() time.Time
}

// Registry is the authoritative validator set. All mutation is serialized
// under one mutex and rejected before any state change on failure.
type Registry struct {
	ctx        context.Context
	lock       sync.RWMutex
	owner      common.Address
	ledger     tokens.Ledger
	db         iface.Database
	validators map[common.Address]*types.Validator
	active     uint64
	now        func() time.Time
}

// NewRegistry restores the validator set from the database and returns a
// ready registry.
func NewRegistry(ctx context.Context, cfg *Config) (*Registry, error) {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	r := &Registry{
		ctx:        ctx,
		owner:      cfg.Owner,
		ledger:     cfg.Ledger,
		db:         cfg.Database,
		validators: make(map[common.Address]*types.Validator),
		now:        now,
	}
	stored, err := cfg.Database.Validators(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not restore validator set")
	}
	for _, v := range stored {
		r.validators[v.Address] = v
		if v.IsActive {
			r.active++
		}
	}
	activeValidatorsGauge.Set(float64(r.active))
	return r, nil
}

// AddValidator registers addr with the given stake pledge. Owner-only. A
// previously deactivated validator re-enters through the same path, keeping
// its audit history; its reputation resets to neutral.
func (r *Registry) AddValidator(caller, addr common.Address, stake uint64) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if caller != r.owner {
		return types.ErrNotAuthorized
	}
	if addr == (common.Address{}) {
		return types.ErrInvalidAddress
	}
	cfg := params.BridgeConfig()
	existing := r.validators[addr]
	if existing != nil && existing.IsActive {
		return types.ErrAlreadyRegistered
	}
	if r.active >= cfg.MaxActiveValidators {
		return types.ErrCapacityExceeded
	}
	if stake < cfg.MinStake {
		return types.ErrInsufficientStake
	}
	if err := r.ledger.TransferFrom(addr, tokens.StakeVault, stake); err != nil {
		return err
	}

	nowUnix := r.now().Unix()
	v := &types.Validator{
		Address:          addr,
		Stake:            stake,
		Reputation:       cfg.NeutralReputation,
		IsActive:         true,
		LastActivityTime: nowUnix,
		JoinedTime:       nowUnix,
	}
	if existing != nil {
		// Keep slash count and validated-transaction history auditable.
		v.Stake = existing.Stake + stake
		v.SlashCount = existing.SlashCount
		v.ValidatedTransactions = existing.ValidatedTransactions
		v.JoinedTime = existing.JoinedTime
	}
	if err := r.db.SaveValidator(r.ctx, v); err != nil {
		return errors.Wrap(err, "could not persist validator")
	}
	r.validators[addr] = v
	r.active++
	activeValidatorsGauge.Set(float64(r.active))
	log.WithField("validator", addr.Hex()).WithField("stake", stake).Info("Validator registered")
	return nil
}

// RemoveValidator deactivates addr and returns its remaining stake.
// Owner-only. Rejected when the removal would make quorum unreachable.
func (r *Registry) RemoveValidator(caller, addr common.Address, reason string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if caller != r.owner {
		return types.ErrNotAuthorized
	}
	v := r.validators[addr]
	if v == nil || !v.IsActive {
		return types.ErrNotRegistered
	}
	if r.active-1 < params.BridgeConfig().MinActiveValidators {
		return types.ErrBelowQuorumThreshold
	}

	// Slashes are applied to the record immediately, so the recorded stake
	// is already net of penalties and is returned in full.
	refund := v.Stake
	if refund > 0 {
		if err := r.ledger.Transfer(tokens.StakeVault, addr, refund); err != nil {
			return err
		}
	}
	updated := *v
	updated.Stake = 0
	updated.IsActive = false
	updated.DeactivationReason = reason
	if err := r.db.SaveValidator(r.ctx, &updated); err != nil {
		return errors.Wrap(err, "could not persist validator")
	}
	r.validators[addr] = &updated
	r.active--
	activeValidatorsGauge.Set(float64(r.active))
	log.WithField("validator", addr.Hex()).WithField("reason", reason).Info("Validator removed")
	return nil
}

// UpdateReputation applies lazy decay followed by the signed delta, clamped
// to [0, MaxReputation], and stamps the validator's activity time. Called
// by the attestation and slashing flows.
func (r *Registry) UpdateReputation(addr common.Address, delta int64) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	v := r.validators[addr]
	if v == nil {
		return types.ErrNotRegistered
	}
	updated := *v
	r.applyReputationDelta(&updated, delta)
	if err := r.db.SaveValidator(r.ctx, &updated); err != nil {
		return errors.Wrap(err, "could not persist validator")
	}
	r.validators[addr] = &updated
	return nil
}

// RecordValidation credits addr for participating in a completed quorum.
func (r *Registry) RecordValidation(addr common.Address) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	v := r.validators[addr]
	if v == nil {
		return types.ErrNotRegistered
	}
	updated := *v
	updated.ValidatedTransactions++
	r.applyReputationDelta(&updated, 1)
	if err := r.db.SaveValidator(r.ctx, &updated); err != nil {
		return errors.Wrap(err, "could not persist validator")
	}
	r.validators[addr] = &updated
	return nil
}

// Slash deducts bps basis points of addr's stake, capped at the available
// stake, applies the reputation penalty, and auto-deactivates the validator
// once its slash count or reputation crosses the configured floor. Returns
// the amount actually deducted; the tokens stay in the stake vault for the
// caller to distribute.
func (r *Registry) Slash(addr common.Address, bps uint64, reason string) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	v := r.validators[addr]
	if v == nil {
		return 0, types.ErrNotRegistered
	}
	cfg := params.BridgeConfig()
	if bps > cfg.MaxSlashBps {
		bps = cfg.MaxSlashBps
	}
	updated := *v
	// Split form avoids overflow on stake*bps while staying exact.
	slashed := updated.Stake/10000*bps + updated.Stake%10000*bps/10000
	if slashed > updated.Stake {
		slashed = updated.Stake
	}
	updated.Stake -= slashed
	updated.SlashCount++
	r.applyReputationDelta(&updated, -int64(cfg.ReputationSlashPenalty))
	if updated.IsActive && (updated.SlashCount >= cfg.MaxSlashCount || updated.Reputation < cfg.ReputationFloor) {
		updated.IsActive = false
		updated.DeactivationReason = reason
	}
	if err := r.db.SaveValidator(r.ctx, &updated); err != nil {
		return 0, errors.Wrap(err, "could not persist validator")
	}
	if v.IsActive && !updated.IsActive {
		r.active--
		activeValidatorsGauge.Set(float64(r.active))
	}
	r.validators[addr] = &updated
	slashEventsTotal.Inc()
	stakeSlashedTotal.Add(float64(slashed))
	log.WithField("validator", addr.Hex()).
		WithField("slashed", slashed).
		WithField("reason", reason).
		Warn("Validator slashed")
	return slashed, nil
}

// IsEligible reports whether addr counts toward quorum right now: active,
// stake at or above the minimum, and decayed reputation at or above the
// validation floor. Read-only; the decayed value is computed, not stored.
func (r *Registry) IsEligible(addr common.Address) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	v := r.validators[addr]
	if v == nil || !v.IsActive {
		return false
	}
	cfg := params.BridgeConfig()
	if v.Stake < cfg.MinStake {
		return false
	}
	rep := decayedReputation(v.Reputation, v.LastActivityTime, r.now().Unix(), cfg.ReputationDecayPerDay)
	return rep >= cfg.MinReputationToValidate
}

// ActiveCount returns the number of active validators. O(1).
func (r *Registry) ActiveCount() uint64 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.active
}

// Validator returns a copy of the record for addr.
func (r *Registry) Validator(addr common.Address) (*types.Validator, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	v := r.validators[addr]
	if v == nil {
		return nil, types.ErrNotRegistered
	}
	cp := *v
	return &cp, nil
}

// ActiveValidators enumerates copies of every active validator record.
func (r *Registry) ActiveValidators() []*types.Validator {
	r.lock.RLock()
	defer r.lock.RUnlock()
	active := make([]*types.Validator, 0, r.active)
	for _, v := range r.validators {
		if v.IsActive {
			cp := *v
			active = append(active, &cp)
		}
	}
	return active
}

// AllValidators enumerates copies of every record ever registered.
func (r *Registry) AllValidators() []*types.Validator {
	r.lock.RLock()
	defer r.lock.RUnlock()
	all := make([]*types.Validator, 0, len(r.validators))
	for _, v := range r.validators {
		cp := *v
		all = append(all, &cp)
	}
	return all
}

// applyReputationDelta decays v's reputation up to now, applies delta, and
// clamps to [0, MaxReputation]. Callers hold the write lock.
func (r *Registry) applyReputationDelta(v *types.Validator, delta int64) {
	cfg := params.BridgeConfig()
	nowUnix := r.now().Unix()
	rep := decayedReputation(v.Reputation, v.LastActivityTime, nowUnix, cfg.ReputationDecayPerDay)
	if delta >= 0 {
		rep += uint64(delta)
		if rep > cfg.MaxReputation {
			rep = cfg.MaxReputation
		}
	} else {
		penalty := uint64(-delta)
		if penalty > rep {
			rep = 0
		} else {
			rep -= penalty
		}
	}
	v.Reputation = rep
	v.LastActivityTime = nowUnix
}

// decayedReputation returns the reputation after linear decay of
// ratePerDay for each full day elapsed since the last activity, floor zero.
// Deterministic given (reputation, lastActivity, now).
func decayedReputation(reputation uint64, lastActivity, now int64, ratePerDay uint64) uint64 {
	if now <= lastActivity {
		return reputation
	}
	days := uint64(now-lastActivity) / 86400
	decay := days * ratePerDay
	if decay >= reputation {
		return 0
	}
	return reputation - decay
}
