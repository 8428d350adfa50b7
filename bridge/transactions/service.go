// Package transactions implements the bridge transaction state machine:
// initiation with atomic fund locking, quorum attestation, quorum fail
// voting, and timeout-based user cancellation.
package transactions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/thresholdlabs/threshbridge/bridge/attestations"
	"github.com/thresholdlabs/threshbridge/bridge/tokens"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/bridge/validators"
	"github.com/thresholdlabs/threshbridge/db/iface"
	"github.com/thresholdlabs/threshbridge/shared/params"
)

// Config options for the transaction service.
type Config struct {
	Ledger       tokens.Ledger
	Registry     *validators.Registry
	Attestations *attestations.Ledger
	Strategy     attestations.Strategy
	Database     iface.Database
	Clock        func() time.Time
}

// Service owns every bridge transaction. Validators and challengers
// reference transactions by nonce; all mutation goes through these entry
// points, serialized under one mutex, rejecting before any state change.
type Service struct {
	ctx       context.Context
	cancel    context.CancelFunc
	lock      sync.Mutex
	ledger    tokens.Ledger
	registry  *validators.Registry
	atts      *attestations.Ledger
	strategy  attestations.Strategy
	db        iface.Database
	txs       map[uint64]*types.BridgeTransaction
	nextNonce uint64
	volume    *EpochCounter
	feed      event.Feed
	now       func() time.Time
}

// NewService restores the transaction table and nonce counter from the
// database and returns a ready service.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(ctx)
	bridgeCfg := params.BridgeConfig()
	s := &Service{
		ctx:      ctx,
		cancel:   cancel,
		ledger:   cfg.Ledger,
		registry: cfg.Registry,
		atts:     cfg.Attestations,
		strategy: cfg.Strategy,
		db:       cfg.Database,
		txs:      make(map[uint64]*types.BridgeTransaction),
		volume:   NewEpochCounter(bridgeCfg.DailyVolumeLimit, bridgeCfg.VolumeEpoch, now),
		now:      now,
	}
	stored, err := cfg.Database.Transactions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not restore transactions")
	}
	var locked uint64
	for _, tx := range stored {
		s.txs[tx.Nonce] = tx
		if tx.Status == types.Pending {
			locked += tx.Amount + tx.Fee
		}
	}
	lockedAmountGauge.Set(float64(locked))
	cd, err := cfg.Database.ChainData(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not restore chain data")
	}
	s.nextNonce = cd.NextNonce
	return s, nil
}

// Start logs the restored state. The service is passive; all work happens
// in its entry points.
func (s *Service) Start() {
	s.lock.Lock()
	pending := 0
	for _, tx := range s.txs {
		if tx.Status == types.Pending {
			pending++
		}
	}
	total := len(s.txs)
	s.lock.Unlock()
	log.WithField("transactions", total).
		WithField("pending", pending).
		WithField("strategy", s.strategy.Name()).
		Info("Transaction service started")
}

// Stop the service.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status always returns nil; failures surface on the entry points.
func (s *Service) Status() error {
	return nil
}

// SubscribeEvents registers ch to receive lifecycle events.
func (s *Service) SubscribeEvents(ch chan<- *Event) event.Subscription {
	return s.feed.Subscribe(ch)
}

// Initiate locks amount plus fee from user and registers a pending
// transfer to the destination chain. This is the only way a transaction is
// created.
func (s *Service) Initiate(user common.Address, amount, destChainID uint64) (*types.BridgeTransaction, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	cfg := params.BridgeConfig()
	if user == (common.Address{}) {
		return nil, types.ErrInvalidAddress
	}
	if amount == 0 {
		return nil, types.ErrZeroAmount
	}
	if amount < cfg.MinTransferAmount || amount > cfg.MaxTransferAmount {
		return nil, types.ErrAmountOutOfBounds
	}
	if !cfg.ChainSupported(destChainID) {
		return nil, types.ErrUnsupportedChain
	}
	fee, err := Fee(amount, destChainID)
	if err != nil {
		return nil, err
	}
	total, ok := safeAdd(amount, fee)
	if !ok {
		return nil, types.ErrAmountOverflow
	}
	if !s.volume.Fits(amount) {
		return nil, types.ErrDailyLimitExceeded
	}

	if err := s.ledger.TransferFrom(user, tokens.BridgeEscrow, total); err != nil {
		return nil, err
	}
	if err := s.volume.Add(amount); err != nil {
		return nil, err
	}

	nonce := s.nextNonce + 1
	tx := &types.BridgeTransaction{
		Nonce:         nonce,
		User:          user,
		Amount:        amount,
		Fee:           fee,
		SourceChainID: cfg.SourceChainID,
		DestChainID:   destChainID,
		Status:        types.Pending,
		CreatedTime:   s.now().Unix(),
	}
	if err := s.db.SaveTransaction(s.ctx, tx); err != nil {
		return nil, errors.Wrap(err, "could not persist transaction")
	}
	if err := s.db.SaveNextNonce(s.ctx, nonce); err != nil {
		return nil, errors.Wrap(err, "could not persist nonce counter")
	}
	s.nextNonce = nonce
	s.txs[nonce] = tx
	transactionsInitiatedTotal.Inc()
	lockedAmountGauge.Add(float64(total))
	log.WithField("nonce", nonce).
		WithField("user", user.Hex()).
		WithField("amount", amount).
		WithField("destChain", destChainID).
		Info("Transfer initiated")
	cp := *tx
	s.feed.Send(&Event{Type: EventInitiated, Transaction: &cp})
	return &cp, nil
}

// CommitAttestation registers a hidden commitment for the commit-reveal
// strategy. Rejected when direct attestation is configured.
func (s *Service) CommitAttestation(validator common.Address, nonce uint64, commitment [32]byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	tx, err := s.pendingTx(nonce)
	if err != nil {
		return err
	}
	if err := s.checkWindow(tx); err != nil {
		return err
	}
	if !s.registry.IsEligible(validator) {
		return types.ErrNotEligibleValidator
	}
	return s.strategy.Commit(validator, nonce, commitment)
}

// Attest records validator's signed claim that the transfer is valid. Once
// the count of attesters that are still eligible reaches the configured
// threshold, the transaction completes: the principal is released to the
// destination reserve, the fee to the fee pool, and the completion event
// fires exactly once.
func (s *Service) Attest(validator common.Address, nonce uint64, sub *attestations.Submission) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	tx, err := s.pendingTx(nonce)
	if err != nil {
		return err
	}
	if err := s.checkWindow(tx); err != nil {
		return err
	}
	if !s.registry.IsEligible(validator) {
		return types.ErrNotEligibleValidator
	}
	if err := s.strategy.Verify(validator, tx, sub); err != nil {
		return err
	}
	if err := s.atts.RecordAttestation(nonce, validator); err != nil {
		return err
	}
	log.WithField("nonce", nonce).
		WithField("validator", validator.Hex()).
		WithField("count", s.atts.Count(nonce)).
		Info("Attestation recorded")

	eligible, err := s.eligibleVoters(nonce, false)
	if err != nil {
		return err
	}
	if uint64(len(eligible)) >= params.BridgeConfig().AttestationThreshold {
		return s.complete(tx, eligible)
	}
	return nil
}

// VoteFail records validator's claim that the transfer is known bad. A
// single validator cannot abort a transfer: the same quorum threshold as
// completion is required before the user is refunded.
func (s *Service) VoteFail(validator common.Address, nonce uint64, reason string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	tx, err := s.pendingTx(nonce)
	if err != nil {
		return err
	}
	if !s.registry.IsEligible(validator) {
		return types.ErrNotEligibleValidator
	}
	if err := s.atts.RecordFailVote(nonce, validator); err != nil {
		return err
	}
	log.WithField("nonce", nonce).
		WithField("validator", validator.Hex()).
		WithField("reason", reason).
		Warn("Fail vote recorded")

	eligible, err := s.eligibleVoters(nonce, true)
	if err != nil {
		return err
	}
	if uint64(len(eligible)) < params.BridgeConfig().AttestationThreshold {
		return nil
	}
	if err := s.refund(tx); err != nil {
		return err
	}
	updated := *tx
	updated.Status = types.Failed
	updated.FailReason = reason
	updated.CompletedTime = s.now().Unix()
	if err := s.db.SaveTransaction(s.ctx, &updated); err != nil {
		return errors.Wrap(err, "could not persist transaction")
	}
	s.txs[nonce] = &updated
	transactionsFailedTotal.Inc()
	log.WithField("nonce", nonce).WithField("reason", reason).Warn("Transfer failed by quorum vote")
	cp := updated
	s.feed.Send(&Event{Type: EventFailed, Transaction: &cp})
	return nil
}

// Cancel refunds the user after the attestation window elapsed with the
// transfer still pending. This is the only cancellation path, and it loses
// the race against a completing quorum by status check.
func (s *Service) Cancel(user common.Address, nonce uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	tx, err := s.pendingTx(nonce)
	if err != nil {
		return err
	}
	if tx.User != user {
		return types.ErrNotAuthorized
	}
	if s.now().Sub(time.Unix(tx.CreatedTime, 0)) < params.BridgeConfig().AttestationWindow {
		return types.ErrTimeoutNotElapsed
	}
	if err := s.refund(tx); err != nil {
		return err
	}
	updated := *tx
	updated.Status = types.Cancelled
	updated.CompletedTime = s.now().Unix()
	if err := s.db.SaveTransaction(s.ctx, &updated); err != nil {
		return errors.Wrap(err, "could not persist transaction")
	}
	s.txs[nonce] = &updated
	transactionsCancelledTotal.Inc()
	log.WithField("nonce", nonce).Info("Transfer cancelled by user")
	cp := updated
	s.feed.Send(&Event{Type: EventCancelled, Transaction: &cp})
	return nil
}

// RevokeTrust marks a completed transaction untrusted after a successful
// challenge against one of its attesters. Released funds are not clawed
// back; compensation routes through the insurance fund. A still-pending
// transaction needs no marking: the slashed validator simply stops
// counting toward quorum.
func (s *Service) RevokeTrust(nonce uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	tx := s.txs[nonce]
	if tx == nil {
		return types.ErrUnknownTransaction
	}
	if tx.Status != types.Completed || tx.TrustRevoked {
		return nil
	}
	updated := *tx
	updated.TrustRevoked = true
	if err := s.db.SaveTransaction(s.ctx, &updated); err != nil {
		return errors.Wrap(err, "could not persist transaction")
	}
	s.txs[nonce] = &updated
	log.WithField("nonce", nonce).Warn("Transaction trust revoked")
	return nil
}

// Transaction returns a copy of the transaction with the given nonce.
func (s *Service) Transaction(nonce uint64) (*types.BridgeTransaction, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	tx := s.txs[nonce]
	if tx == nil {
		return nil, types.ErrUnknownTransaction
	}
	cp := *tx
	return &cp, nil
}

// Transactions enumerates copies of every transaction in nonce order.
func (s *Service) Transactions() []*types.BridgeTransaction {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]*types.BridgeTransaction, 0, len(s.txs))
	for _, tx := range s.txs {
		cp := *tx
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nonce < out[j].Nonce })
	return out
}

// FeeQuote returns the fee charged for amount to the destination chain.
func (s *Service) FeeQuote(amount, destChainID uint64) (uint64, error) {
	if !params.BridgeConfig().ChainSupported(destChainID) {
		return 0, types.ErrUnsupportedChain
	}
	return Fee(amount, destChainID)
}

// pendingTx returns the transaction for nonce if it exists and is pending.
// Callers hold the lock.
func (s *Service) pendingTx(nonce uint64) (*types.BridgeTransaction, error) {
	tx := s.txs[nonce]
	if tx == nil {
		return nil, types.ErrUnknownTransaction
	}
	if tx.Status != types.Pending {
		return nil, types.ErrInvalidStatus
	}
	return tx, nil
}

func (s *Service) checkWindow(tx *types.BridgeTransaction) error {
	if s.now().Sub(time.Unix(tx.CreatedTime, 0)) > params.BridgeConfig().AttestationWindow {
		return types.ErrAttestationWindowExpired
	}
	return nil
}

// eligibleVoters filters the recorded attesters (or fail voters) of nonce
// down to validators that are eligible right now. Quorum is re-validated
// against the current active set at resolution time, not at attestation
// time: a validator slashed or deactivated mid-flight stops counting even
// though its bit stays set.
func (s *Service) eligibleVoters(nonce uint64, failVotes bool) ([]common.Address, error) {
	var voters []common.Address
	var err error
	if failVotes {
		voters, err = s.atts.FailVoters(nonce)
	} else {
		voters, err = s.atts.Attesters(nonce)
	}
	if err != nil {
		return nil, err
	}
	eligible := make([]common.Address, 0, len(voters))
	for _, v := range voters {
		if s.registry.IsEligible(v) {
			eligible = append(eligible, v)
		}
	}
	return eligible, nil
}

// complete finalizes tx: principal to the destination reserve, fee to the
// fee pool, proof hash recorded, completion event published exactly once.
// Callers hold the lock and have verified quorum.
func (s *Service) complete(tx *types.BridgeTransaction, attesters []common.Address) error {
	if err := s.ledger.Transfer(tokens.BridgeEscrow, tokens.DestinationReserve, tx.Amount); err != nil {
		return err
	}
	if err := s.ledger.Transfer(tokens.BridgeEscrow, tokens.FeePool, tx.Fee); err != nil {
		return errors.Wrap(err, "fee release failed after principal release")
	}
	updated := *tx
	updated.Status = types.Completed
	updated.CompletedTime = s.now().Unix()
	updated.ProofHash = attestations.Digest(tx)
	if err := s.db.SaveTransaction(s.ctx, &updated); err != nil {
		return errors.Wrap(err, "could not persist transaction")
	}
	s.txs[tx.Nonce] = &updated
	transactionsCompletedTotal.Inc()
	lockedAmountGauge.Sub(float64(tx.Amount + tx.Fee))
	for _, attester := range attesters {
		if err := s.registry.RecordValidation(attester); err != nil {
			log.WithError(err).WithField("validator", attester.Hex()).Error("Could not credit attester")
		}
	}
	log.WithField("nonce", tx.Nonce).
		WithField("attesters", len(attesters)).
		Info("Transfer completed by quorum")
	cp := updated
	s.feed.Send(&Event{Type: EventCompleted, Transaction: &cp})
	return nil
}

// refund returns principal plus fee to the user. Callers hold the lock.
func (s *Service) refund(tx *types.BridgeTransaction) error {
	if err := s.ledger.Transfer(tokens.BridgeEscrow, tx.User, tx.Amount+tx.Fee); err != nil {
		return err
	}
	lockedAmountGauge.Sub(float64(tx.Amount + tx.Fee))
	return nil
}
