package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/flashloan"
)

// RegisterFlashLoanRoutes wires the flash-loan endpoints.
func RegisterFlashLoanRoutes(r fiber.Router, h *flashloan.Handler) {
	r.Post("/flash-loans", h.FlashLoan)
	r.Get("/flash-loans/quote", h.CanFlashLoan)
	r.Post("/flash-loans/deposits", h.Deposit)
	r.Post("/flash-loans/withdrawals", h.Withdraw)
	r.Get("/flash-loans/deposits", h.DepositOf)
}
