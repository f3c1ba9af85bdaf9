package chain

import (
	"context"
	"testing"
	"time"
)

func TestManualClock(t *testing.T) {
	c := NewManualClock(5)
	ctx := context.Background()

	h, err := c.Height(ctx)
	if err != nil || h != 5 {
		t.Fatalf("expected height 5, got %d err=%v", h, err)
	}

	c.Advance(2)
	if h, _ = c.Height(ctx); h != 7 {
		t.Fatalf("expected height 7 after advance, got %d", h)
	}

	c.Set(100)
	if h, _ = c.Height(ctx); h != 100 {
		t.Fatalf("expected height 100 after set, got %d", h)
	}
}

func TestIntervalClock(t *testing.T) {
	genesis := time.Unix(1_000, 0)
	c, err := NewIntervalClock(genesis, time.Second)
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	c.now = func() time.Time { return genesis.Add(90*time.Second + 500*time.Millisecond) }

	h, err := c.Height(context.Background())
	if err != nil {
		t.Fatalf("height: %v", err)
	}
	if h != 90 {
		t.Fatalf("expected height 90, got %d", h)
	}
}

func TestIntervalClockRejectsBadInterval(t *testing.T) {
	if _, err := NewIntervalClock(time.Unix(0, 0), 0); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}
