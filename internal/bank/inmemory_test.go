package bank

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryBank_TransferMaintainsBalance(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()

	if err := b.EnsureAccount(ctx, "asset:a"); err != nil {
		t.Fatalf("ensure account a: %v", err)
	}
	if err := b.EnsureAccount(ctx, "asset:b"); err != nil {
		t.Fatalf("ensure account b: %v", err)
	}

	SeedBalance(b, "asset:a", 10_000)

	res, err := b.Transfer(ctx, "asset:a", "asset:b", "deposit", "client-1", 1_500)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if res.FromBalance != 8_500 {
		t.Fatalf("expected from balance 8500, got %d", res.FromBalance)
	}
	if res.ToBalance != 1_500 {
		t.Fatalf("expected to balance 1500, got %d", res.ToBalance)
	}

	bankImpl := b.(*inMemoryBank)
	total := bankImpl.balances["asset:a"] + bankImpl.balances["asset:b"]
	if total != 10_000 {
		t.Fatalf("bank not balanced, total=%d", total)
	}
}

func TestInMemoryBank_DuplicateTransaction(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	b.EnsureAccount(ctx, "asset:a")
	b.EnsureAccount(ctx, "asset:b")
	SeedBalance(b, "asset:a", 5_000)

	if _, err := b.Transfer(ctx, "asset:a", "asset:b", "deposit", "dup", 500); err != nil {
		t.Fatalf("initial transfer failed: %v", err)
	}
	if _, err := b.Transfer(ctx, "asset:a", "asset:b", "deposit", "dup", 500); err != ErrDuplicateTransaction {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestInMemoryBank_ConcurrentTransfers(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	b.EnsureAccount(ctx, "asset:a")
	b.EnsureAccount(ctx, "asset:b")
	SeedBalance(b, "asset:a", 100_000)
	bankImpl := b.(*inMemoryBank)

	const workers = 10
	const amount = int64(500)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txID := fmt.Sprintf("tx-%d", i)
			if _, err := b.Transfer(ctx, "asset:a", "asset:b", "deposit", txID, amount); err != nil {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	total := bankImpl.balances["asset:a"] + bankImpl.balances["asset:b"]
	if total != 100_000 {
		t.Fatalf("bank not balanced after concurrency, total=%d", total)
	}
}

func TestInMemoryBank_ExternalIn(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	b.EnsureAccount(ctx, "asset:a")
	b.EnsureAccount(ctx, ExternalSuspenseAccountCode)

	res, err := b.ExternalIn(ctx, "asset:a", "client-in", 2_000)
	if err != nil {
		t.Fatalf("external in failed: %v", err)
	}
	if res.Status != StatusPendingSettlement {
		t.Fatalf("unexpected status: %s", res.Status)
	}
	if res.AccountBalance != 2_000 {
		t.Fatalf("expected balance 2000, got %d", res.AccountBalance)
	}

	if _, err := b.ExternalIn(ctx, "asset:a", "client-in", 2_000); err != ErrDuplicateTransaction {
		t.Fatalf("expected duplicate external in error, got %v", err)
	}
}

func TestInMemoryBank_ExternalOut(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	b.EnsureAccount(ctx, "asset:a")
	b.EnsureAccount(ctx, ExternalSuspenseAccountCode)
	SeedBalance(b, "asset:a", 5_000)

	res, err := b.ExternalOut(ctx, "asset:a", "client-out", 1_500)
	if err != nil {
		t.Fatalf("external out failed: %v", err)
	}
	if res.AccountBalance != 3_500 {
		t.Fatalf("expected balance 3500, got %d", res.AccountBalance)
	}

	if _, err := b.ExternalOut(ctx, "asset:a", "client-out", 1_500); err != ErrDuplicateTransaction {
		t.Fatalf("expected duplicate external out error, got %v", err)
	}

	if _, err := b.ExternalOut(ctx, "asset:a", "client-out-2", 10_000); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}
