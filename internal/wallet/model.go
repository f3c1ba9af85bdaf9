package wallet

import (
	"time"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// Wallet is the proxy account whose downstream calls are gated by the module
// and delegation tables. Permission state lives with the wallet, not with the
// controller: an ownership transfer leaves enabled modules and delegate
// allowances intact.
type Wallet struct {
	ID      chain.Address
	TokenID uint64
	// NextActionBlock is the lowest height the wallet may still act at. A
	// fresh wallet starts at 0, so the genesis block itself is usable.
	NextActionBlock uint64
	CreatedAt       time.Time
}
