// Package tokens defines the narrow token-ledger collaborator interface the
// bridge core consumes, the module accounts funds move through, and an
// in-memory implementation used by tests and local development.
package tokens

import (
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/thresholdlabs/threshbridge/bridge/types"
)

// Module accounts. Funds locked by the bridge only ever sit in one of these
// sinks, which keeps the conservation invariant checkable from the ledger
// alone.
var (
	// BridgeEscrow holds principal+fee of pending transactions.
	BridgeEscrow = common.HexToAddress("0x0000000000000000000000000000000000b21d9e")
	// StakeVault holds validator stake pledged at registration.
	StakeVault = common.HexToAddress("0x00000000000000000000000000000000005741ce")
	// ChallengeVault holds challenger stakes of open challenges.
	ChallengeVault = common.HexToAddress("0x0000000000000000000000000000000000c4a11e")
	// InsuranceFund accumulates the non-reward share of slashed stake.
	InsuranceFund = common.HexToAddress("0x00000000000000000000000000000000001d5f0d")
	// FeePool accumulates fees of completed transactions.
	FeePool = common.HexToAddress("0x0000000000000000000000000000000000fee901")
	// DestinationReserve receives the principal of completed transactions,
	// standing in for release on the destination chain.
	DestinationReserve = common.HexToAddress("0x0000000000000000000000000000000000de5005")
)

// Ledger is the fungible token collaborator. Implementations must fail
// loudly: a movement that cannot be funded returns an error, never a silent
// no-op.
type Ledger interface {
	BalanceOf(addr common.Address) uint64
	Transfer(from, to common.Address, amount uint64) error
	TransferFrom(from, to common.Address, amount uint64) error
}

// InMemoryLedger is a mutex-guarded balance table.
type InMemoryLedger struct {
	lock     sync.RWMutex
	balances map[common.Address]uint64
}

// NewInMemoryLedger returns an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{balances: make(map[common.Address]uint64)}
}

// Mint credits freshly created balance to addr.
func (l *InMemoryLedger) Mint(addr common.Address, amount uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.balances[addr] > math.MaxUint64-amount {
		panic("token supply overflow")
	}
	l.balances[addr] += amount
}

// BalanceOf returns the balance of addr.
func (l *InMemoryLedger) BalanceOf(addr common.Address) uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.balances[addr]
}

// Transfer moves amount from one account to another.
func (l *InMemoryLedger) Transfer(from, to common.Address, amount uint64) error {
	return l.move(from, to, amount)
}

// TransferFrom moves amount on behalf of the bridge. The in-memory ledger
// models the bridge as universally approved, so this is the same movement
// as Transfer; a contract-backed implementation would check allowances.
func (l *InMemoryLedger) TransferFrom(from, to common.Address, amount uint64) error {
	return l.move(from, to, amount)
}

func (l *InMemoryLedger) move(from, to common.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.balances[from] < amount {
		return types.ErrInsufficientBalance
	}
	if l.balances[to] > math.MaxUint64-amount {
		return types.ErrTransferFailed
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
