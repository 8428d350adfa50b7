package transactions

import (
	"github.com/thresholdlabs/threshbridge/bridge/types"
)

// EventType identifies a transaction lifecycle notification.
type EventType uint8

const (
	// EventInitiated fires when funds are locked for a new transfer.
	EventInitiated EventType = iota
	// EventCompleted fires exactly once when quorum is reached; it is the
	// durable signal for destination-side minting or release.
	EventCompleted
	// EventFailed fires when a quorum of validators voted the transfer bad.
	EventFailed
	// EventCancelled fires when the user reclaims a timed-out transfer.
	EventCancelled
)

// String implements the stringer interface.
func (t EventType) String() string {
	switch t {
	case EventInitiated:
		return "initiated"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is a transaction lifecycle notification published on the service
// feed. The transaction is a copy; subscribers cannot mutate bridge state.
type Event struct {
	Type        EventType
	Transaction *types.BridgeTransaction
}
