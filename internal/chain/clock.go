package chain

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Clock reports the current block height. All one-action-per-block checks in
// the wallet and module layers are made against this height.
type Clock interface {
	Height(ctx context.Context) (uint64, error)
}

// ManualClock is a settable clock for tests and local development.
type ManualClock struct {
	mu     sync.RWMutex
	height uint64
}

// NewManualClock starts a manual clock at the provided height.
func NewManualClock(height uint64) *ManualClock {
	return &ManualClock{height: height}
}

// Height returns the current manual height.
func (c *ManualClock) Height(_ context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height, nil
}

// Advance moves the clock forward by n blocks.
func (c *ManualClock) Advance(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += n
}

// Set pins the clock to an absolute height.
func (c *ManualClock) Set(height uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = height
}

// IntervalClock derives the block height from wall-clock time: one block per
// fixed interval since genesis.
type IntervalClock struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
}

// NewIntervalClock builds a clock producing one block per interval since genesis.
func NewIntervalClock(genesis time.Time, interval time.Duration) (*IntervalClock, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("block interval must be positive, got %s", interval)
	}
	return &IntervalClock{genesis: genesis, interval: interval, now: time.Now}, nil
}

// Height returns the number of whole intervals elapsed since genesis.
func (c *IntervalClock) Height(_ context.Context) (uint64, error) {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return 0, fmt.Errorf("genesis time %s is in the future", c.genesis)
	}
	return uint64(elapsed / c.interval), nil
}
