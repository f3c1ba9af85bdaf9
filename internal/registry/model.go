package registry

import (
	"time"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// Account binds an ownership token to its wallet. The token's current holder
// is the wallet's controller; the token↔wallet mapping is immutable after
// mint (there is no burn path).
type Account struct {
	TokenID    uint64
	WalletID   chain.Address
	Controller chain.Address
	CreatedAt  time.Time
}
