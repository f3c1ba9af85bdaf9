package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/registry"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

// RegisterWalletRoutes wires wallet-core and registry endpoints.
func RegisterWalletRoutes(r fiber.Router, wh *wallet.Handler, rh *registry.Handler) {
	r.Post("/wallets", rh.CreateWallet)
	r.Get("/wallets/:walletId", wh.Get)
	r.Post("/wallets/:walletId/modules", wh.ToggleModule)
	r.Post("/wallets/:walletId/allowances", wh.ToggleAllowance)
	r.Post("/wallets/:walletId/bridge/hype", wh.BridgeHype)
	r.Post("/wallets/:walletId/bridge/token", wh.BridgeToken)
	r.Post("/wallets/:walletId/withdraw", wh.Withdraw)

	r.Get("/accounts/:tokenId", rh.GetAccount)
	r.Post("/accounts/:tokenId/transfer", rh.TransferOwnership)
}
