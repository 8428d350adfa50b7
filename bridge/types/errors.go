package types

import (
	"errors"
)

// Kind classifies a bridge error so off-chain tooling can distinguish
// inputs that will never succeed from operations that may be retried.
type Kind uint8

const (
	// Validation means the input itself was malformed or out of bounds.
	Validation Kind = iota
	// Authorization means the caller is not permitted to perform the operation.
	Authorization
	// State means the operation is invalid for the current transaction or
	// challenge status.
	State
	// Economic means a stake, balance, or fund requirement was not met.
	Economic
)

// String implements the stringer interface.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authorization:
		return "authorization"
	case State:
		return "state"
	case Economic:
		return "economic"
	default:
		return "unknown"
	}
}

// Error is a bridge failure with a taxonomy kind attached. Every rejected
// operation leaves state untouched, so callers can key retry behavior off
// the kind alone.
type Error struct {
	kind Kind
	msg  string
}

// NewError returns a bridge error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.msg
}

// Kind returns the taxonomy classification of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

// ErrorKind extracts the taxonomy kind from err. The second return is false
// if err does not wrap a bridge error.
func ErrorKind(err error) (Kind, bool) {
	var bridgeErr *Error
	if errors.As(err, &bridgeErr) {
		return bridgeErr.kind, true
	}
	return 0, false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	k, ok := ErrorKind(err)
	return ok && k == Validation
}

// IsAuthorization reports whether err is an authorization error.
func IsAuthorization(err error) bool {
	k, ok := ErrorKind(err)
	return ok && k == Authorization
}

// IsState reports whether err is a state error.
func IsState(err error) bool {
	k, ok := ErrorKind(err)
	return ok && k == State
}

// IsEconomic reports whether err is an economic error.
func IsEconomic(err error) bool {
	k, ok := ErrorKind(err)
	return ok && k == Economic
}

var (
	// ErrInvalidAddress is returned for the zero address.
	ErrInvalidAddress = NewError(Validation, "invalid address")
	// ErrZeroAmount is returned for a zero transfer amount.
	ErrZeroAmount = NewError(Validation, "amount must be greater than zero")
	// ErrAmountOutOfBounds is returned when an amount falls outside the
	// configured transfer bounds.
	ErrAmountOutOfBounds = NewError(Validation, "amount outside configured transfer bounds")
	// ErrUnsupportedChain is returned for an unknown destination chain id.
	ErrUnsupportedChain = NewError(Validation, "unsupported destination chain")
	// ErrAmountOverflow is returned when fee arithmetic would overflow.
	ErrAmountOverflow = NewError(Validation, "amount plus fee overflows")
	// ErrInvalidSignature is returned when the recovered signer does not
	// match the submitting validator.
	ErrInvalidSignature = NewError(Validation, "invalid attestation signature")
	// ErrCommitmentMismatch is returned when a revealed salt does not hash
	// to the registered commitment.
	ErrCommitmentMismatch = NewError(Validation, "revealed value does not match commitment")

	// ErrNotAuthorized is returned when the caller lacks permission.
	ErrNotAuthorized = NewError(Authorization, "caller not authorized")
	// ErrNotEligibleValidator is returned when the caller is not an active
	// validator above the reputation floor.
	ErrNotEligibleValidator = NewError(Authorization, "caller is not an eligible validator")
	// ErrInsufficientVotingPower is returned when a community voter holds
	// less than the minimum voting power.
	ErrInsufficientVotingPower = NewError(Authorization, "insufficient voting power")

	// ErrAlreadyRegistered is returned when registering an active validator.
	ErrAlreadyRegistered = NewError(State, "validator already registered")
	// ErrNotRegistered is returned for lookups of an unknown validator.
	ErrNotRegistered = NewError(State, "validator not registered")
	// ErrCapacityExceeded is returned when the active validator set is full.
	ErrCapacityExceeded = NewError(State, "active validator set at capacity")
	// ErrBelowQuorumThreshold is returned when a removal would make quorum
	// unreachable.
	ErrBelowQuorumThreshold = NewError(State, "removal would drop active set below quorum minimum")
	// ErrDuplicateAttestation is returned when a validator attests or
	// fail-votes the same transaction twice.
	ErrDuplicateAttestation = NewError(State, "validator already attested this transaction")
	// ErrAttestationWindowExpired is returned for attestations after the
	// transaction timeout.
	ErrAttestationWindowExpired = NewError(State, "attestation window expired")
	// ErrUnknownTransaction is returned for an unknown transaction nonce.
	ErrUnknownTransaction = NewError(State, "unknown transaction nonce")
	// ErrInvalidStatus is returned when a transaction is not in the status
	// the operation requires.
	ErrInvalidStatus = NewError(State, "operation invalid for current transaction status")
	// ErrTimeoutNotElapsed is returned when cancelling before the timeout.
	ErrTimeoutNotElapsed = NewError(State, "cancellation timeout has not elapsed")
	// ErrUnknownChallenge is returned for an unknown challenge id.
	ErrUnknownChallenge = NewError(State, "unknown challenge id")
	// ErrAlreadyResolved guards challenge resolution re-entry.
	ErrAlreadyResolved = NewError(State, "challenge already resolved")
	// ErrChallengePeriodActive is returned when resolving before the
	// challenge period has elapsed.
	ErrChallengePeriodActive = NewError(State, "challenge period still active")
	// ErrChallengePeriodOver is returned when voting after the period.
	ErrChallengePeriodOver = NewError(State, "challenge period has ended")
	// ErrAlreadyVoted is returned when an account votes twice on a challenge.
	ErrAlreadyVoted = NewError(State, "account already voted on this challenge")
	// ErrCommitmentNotFound is returned when revealing without a commit.
	ErrCommitmentNotFound = NewError(State, "no commitment registered for validator")
	// ErrRevealWindowExpired is returned when revealing after the window;
	// the commitment is void.
	ErrRevealWindowExpired = NewError(State, "reveal window expired")
	// ErrCommitRevealDisabled is returned when the commit phase is invoked
	// while the direct strategy is configured.
	ErrCommitRevealDisabled = NewError(State, "commit-reveal attestation is not enabled")
	// ErrVotingDisabled is returned when community voting is invoked while
	// the arbitrator resolution path is configured.
	ErrVotingDisabled = NewError(State, "community voting is not enabled")

	// ErrInsufficientStake is returned when a validator stake is below the
	// configured minimum.
	ErrInsufficientStake = NewError(Economic, "stake below configured minimum")
	// ErrInsufficientBalance is returned when a token movement cannot be
	// funded.
	ErrInsufficientBalance = NewError(Economic, "insufficient token balance")
	// ErrDailyLimitExceeded is returned when an initiation would exceed the
	// volume limit for the current epoch.
	ErrDailyLimitExceeded = NewError(Economic, "daily volume limit exceeded")
	// ErrTransferFailed is returned when the token ledger rejects a
	// transfer; the ledger is expected to fail loudly.
	ErrTransferFailed = NewError(Economic, "token transfer failed")
)
