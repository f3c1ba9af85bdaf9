package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/router"
)

// RegisterRouterRoutes wires the three action-router deployments. Every
// variant exposes the full surface; the service rejects entry points its
// variant keeps closed.
func RegisterRouterRoutes(r fiber.Router, raw, structured, hardened *router.Service) {
	for _, deployment := range []struct {
		prefix string
		svc    *router.Service
	}{
		{"/routers/raw", raw},
		{"/routers/structured", structured},
		{"/routers/hardened", hardened},
	} {
		h := router.NewHandler(deployment.svc)
		g := r.Group(deployment.prefix + "/wallets/:walletId")
		g.Post("/actions", h.DoActions)
		g.Post("/orders", h.PlaceLimitOrder)
		g.Post("/orders/cancel-by-oid", h.CancelOrderByOid)
		g.Post("/orders/cancel-by-cloid", h.CancelOrderByCloid)
		g.Post("/vault-transfers", h.TransferVault)
		g.Post("/stake/delegate", h.DelegateStake)
		g.Post("/stake/deposit", h.DepositStake)
		g.Post("/stake/withdraw", h.WithdrawStake)
		g.Post("/spot-send", h.SendSpot)
		g.Post("/usd-class", h.TransferUsdClass)
		g.Post("/finalize-evm-contract", h.FinalizeEVMContract)
		g.Post("/api-wallets", h.AddAPIWallet)
	}
}
