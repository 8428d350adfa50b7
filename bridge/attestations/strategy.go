package attestations

import (
	"bytes"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/shared/bytesutil"
	"github.com/thresholdlabs/threshbridge/shared/params"
)

// Submission carries the material a validator presents when attesting. Salt
// is only consulted by the commit-reveal strategy.
type Submission struct {
	Signature []byte
	Salt      [32]byte
}

// Strategy verifies attestation submissions. The direct and commit-reveal
// protocols are interchangeable implementations selected by configuration.
type Strategy interface {
	Name() string
	// Commit registers a hidden commitment ahead of the reveal. The direct
	// strategy rejects it.
	Commit(validator common.Address, nonce uint64, commitment [32]byte) error
	// Verify checks the submission against the canonical digest of tx. The
	// recovered signer must be the submitting validator.
	Verify(validator common.Address, tx *types.BridgeTransaction, sub *Submission) error
}

// NewStrategy returns the strategy selected by the active bridge config.
func NewStrategy(clock func() time.Time) Strategy {
	if params.BridgeConfig().CommitRevealEnabled {
		return NewCommitReveal(clock)
	}
	return &Direct{}
}

// Direct is the one-shot protocol: the validator signs the canonical digest
// and submits the signature in a single call.
type Direct struct{}

// Name implements Strategy.
func (d *Direct) Name() string {
	return "direct"
}

// Commit implements Strategy. Direct attestations have no commit phase.
func (d *Direct) Commit(_ common.Address, _ uint64, _ [32]byte) error {
	return types.ErrCommitRevealDisabled
}

// Verify implements Strategy.
func (d *Direct) Verify(validator common.Address, tx *types.BridgeTransaction, sub *Submission) error {
	digest := Digest(tx)
	signer, err := RecoverSigner(digest, sub.Signature)
	if err != nil {
		return err
	}
	if signer != validator {
		return types.ErrInvalidSignature
	}
	return nil
}

type commitEntry struct {
	commitment  [32]byte
	committedAt time.Time
}

// CommitReveal is the two-phase protocol: the validator first registers
// commitment = keccak256(digest || salt), then reveals the salt and a
// signature over the digest within the reveal window. Hiding the digest
// behind the commitment prevents front-running of the attestation content.
// A commitment left unrevealed past the window is void.
type CommitReveal struct {
	lock    sync.Mutex
	commits map[string]commitEntry
	now     func() time.Time
}

// NewCommitReveal returns a commit-reveal strategy using the given clock,
// defaulting to time.Now.
func NewCommitReveal(clock func() time.Time) *CommitReveal {
	if clock == nil {
		clock = time.Now
	}
	return &CommitReveal{
		commits: make(map[string]commitEntry),
		now:     clock,
	}
}

// Name implements Strategy.
func (c *CommitReveal) Name() string {
	return "commit-reveal"
}

func commitKey(validator common.Address, nonce uint64) string {
	return string(append(bytesutil.Bytes8(nonce), validator.Bytes()...))
}

// Commit implements Strategy. A validator holds at most one live commitment
// per transaction; overwriting is rejected.
func (c *CommitReveal) Commit(validator common.Address, nonce uint64, commitment [32]byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	key := commitKey(validator, nonce)
	if entry, ok := c.commits[key]; ok {
		// A voided commitment past the window may be replaced.
		if c.now().Sub(entry.committedAt) <= params.BridgeConfig().RevealWindow {
			return types.ErrDuplicateAttestation
		}
	}
	c.commits[key] = commitEntry{commitment: commitment, committedAt: c.now()}
	return nil
}

// Verify implements Strategy.
func (c *CommitReveal) Verify(validator common.Address, tx *types.BridgeTransaction, sub *Submission) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	key := commitKey(validator, tx.Nonce)
	entry, ok := c.commits[key]
	if !ok {
		return types.ErrCommitmentNotFound
	}
	if c.now().Sub(entry.committedAt) > params.BridgeConfig().RevealWindow {
		delete(c.commits, key)
		return types.ErrRevealWindowExpired
	}
	digest := Digest(tx)
	expected := crypto.Keccak256(digest[:], sub.Salt[:])
	if !bytes.Equal(expected, entry.commitment[:]) {
		return types.ErrCommitmentMismatch
	}
	signer, err := RecoverSigner(digest, sub.Signature)
	if err != nil {
		return err
	}
	if signer != validator {
		return types.ErrInvalidSignature
	}
	delete(c.commits, key)
	return nil
}
