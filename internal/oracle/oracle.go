package oracle

import (
	"context"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// SpotBalance is a point-in-time view of an account's settlement-layer spot
// balance for one token.
type SpotBalance struct {
	Total    uint64
	Hold     uint64
	EntryNtl uint64
}

// VaultEquity is a point-in-time view of an account's position in a vault.
type VaultEquity struct {
	Equity      uint64
	LockedUntil uint64 // unix millis after which withdrawal is permitted
}

// Oracle exposes read-only queries against the settlement layer's last
// observed finalized state. Reads are never transactionally isolated from the
// settlement layer itself: by the time a cross-layer effect lands, the true
// state may have diverged from what was read here.
type Oracle interface {
	SpotBalance(ctx context.Context, account chain.Address, token uint64) (SpotBalance, error)
	Withdrawable(ctx context.Context, account chain.Address) (uint64, error)
	VaultEquity(ctx context.Context, account, vault chain.Address) (VaultEquity, error)
	UserExists(ctx context.Context, account chain.Address) (bool, error)
}
