package transactions

import (
	"sync"
	"time"

	"github.com/thresholdlabs/threshbridge/bridge/types"
)

// EpochCounter enforces a volume limit over fixed epochs. The counter
// resets whenever the epoch index (now / epochLength) advances; there is no
// background ticking. A zero limit disables the check.
type EpochCounter struct {
	lock     sync.Mutex
	limit    uint64
	epochLen time.Duration
	epoch    uint64
	used     uint64
	now      func() time.Time
}

// NewEpochCounter returns a counter with the given limit and epoch length.
func NewEpochCounter(limit uint64, epochLen time.Duration, clock func() time.Time) *EpochCounter {
	if clock == nil {
		clock = time.Now
	}
	return &EpochCounter{
		limit:    limit,
		epochLen: epochLen,
		now:      clock,
	}
}

// Fits reports whether amount can still be added in the current epoch.
func (c *EpochCounter) Fits(amount uint64) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.roll()
	if c.limit == 0 {
		return true
	}
	return c.used <= c.limit && amount <= c.limit-c.used
}

// Add records amount against the current epoch.
func (c *EpochCounter) Add(amount uint64) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.roll()
	if c.limit != 0 && (c.used > c.limit || amount > c.limit-c.used) {
		return types.ErrDailyLimitExceeded
	}
	c.used += amount
	return nil
}

// Used returns the volume consumed in the current epoch.
func (c *EpochCounter) Used() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.roll()
	return c.used
}

// Epoch returns the current epoch index.
func (c *EpochCounter) Epoch() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.roll()
	return c.epoch
}

// roll resets the counter when the epoch index has advanced. Callers hold
// the lock.
func (c *EpochCounter) roll() {
	epoch := uint64(c.now().UnixNano()) / uint64(c.epochLen.Nanoseconds())
	if epoch != c.epoch {
		c.epoch = epoch
		c.used = 0
	}
}
