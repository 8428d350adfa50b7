// Package types defines the persistent records shared by the bridge core:
// validators, bridge transactions, attestation records, and challenges.
package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/prysmaticlabs/go-bitfield"
)

// TransactionStatus is the finite status of a bridge transaction. Statuses
// are monotonic: a transaction never re-enters Pending after leaving it.
type TransactionStatus uint8

const (
	// Pending covers initiation and lock; funds are locked atomically when
	// the transaction is created.
	Pending TransactionStatus = iota
	// Completed means quorum attested and funds were released on the
	// destination side.
	Completed
	// Failed means a quorum of validators voted the transfer bad and the
	// user was refunded.
	Failed
	// Cancelled means the user reclaimed funds after the timeout.
	Cancelled
)

// String implements the stringer interface.
func (s TransactionStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Final reports whether the status is terminal.
func (s TransactionStatus) Final() bool {
	return s != Pending
}

// Validator is a staked attester. Records are never deleted; a removed or
// auto-deactivated validator keeps its history with IsActive false.
type Validator struct {
	Address               common.Address `json:"address"`
	Stake                 uint64         `json:"stake"`
	Reputation            uint64         `json:"reputation"`
	IsActive              bool           `json:"is_active"`
	SlashCount            uint64         `json:"slash_count"`
	ValidatedTransactions uint64         `json:"validated_transactions"`
	LastActivityTime      int64          `json:"last_activity_time"`
	JoinedTime            int64          `json:"joined_time"`
	DeactivationReason    string         `json:"deactivation_reason,omitempty"`
}

// BridgeTransaction is a user-initiated cross-chain transfer, keyed by a
// monotonically increasing nonce. All mutation goes through the transaction
// service; validators and challengers only reference it by nonce.
type BridgeTransaction struct {
	Nonce         uint64            `json:"nonce"`
	User          common.Address    `json:"user"`
	Amount        uint64            `json:"amount"`
	Fee           uint64            `json:"fee"`
	SourceChainID uint64            `json:"source_chain_id"`
	DestChainID   uint64            `json:"dest_chain_id"`
	Status        TransactionStatus `json:"status"`
	CreatedTime   int64             `json:"created_time"`
	CompletedTime int64             `json:"completed_time,omitempty"`
	ProofHash     [32]byte          `json:"proof_hash"`
	FailReason    string            `json:"fail_reason,omitempty"`
	// TrustRevoked is set when a challenge against an attester of this
	// transaction succeeds after completion. Released funds are not clawed
	// back; compensation is an insurance fund matter.
	TrustRevoked bool `json:"trust_revoked,omitempty"`
}

// AttestationRecord tracks which validators attested or fail-voted a
// transaction. Validators are assigned bitmap slots on first touch.
type AttestationRecord struct {
	Nonce     uint64            `json:"nonce"`
	Attested  bitfield.Bitlist  `json:"attested"`
	FailVotes bitfield.Bitlist  `json:"fail_votes"`
	Slots     map[string]uint64 `json:"slots"` // validator hex address -> bitmap slot
	NextSlot  uint64            `json:"next_slot"`
}

// Challenge is a dispute raised against a validator's role in a bridge
// transaction. A challenge resolves exactly once.
type Challenge struct {
	ID                    uint64          `json:"id"`
	Challenger            common.Address  `json:"challenger"`
	Validator             common.Address  `json:"validator"`
	TxNonce               uint64          `json:"tx_nonce"`
	Stake                 uint64          `json:"stake"`
	Evidence              [32]byte        `json:"evidence"`
	CreatedTime           int64           `json:"created_time"`
	Resolved              bool            `json:"resolved"`
	Succeeded             bool            `json:"succeeded"`
	ResolvedTime          int64           `json:"resolved_time,omitempty"`
	PowerForValidator     uint64          `json:"power_for_validator"`
	PowerAgainstValidator uint64          `json:"power_against_validator"`
	Voted                 map[string]bool `json:"voted,omitempty"` // voter hex address -> voted for validator
}

// ChainData holds the bridge-wide counters restored at startup.
type ChainData struct {
	NextNonce       uint64 `json:"next_nonce"`
	NextChallengeID uint64 `json:"next_challenge_id"`
}
