package flashloan

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/middleware"
	"github.com/hyperwallet/hyperwallet/internal/module"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

// Handler exposes flash-loan HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a flash-loan HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type flashLoanRequest struct {
	Wallet    string `json:"wallet"`
	Asset     string `json:"asset"`
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
}

// FlashLoan releases funds locally while the repayment leg settles on core.
func (h *Handler) FlashLoan(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	var req flashLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	walletID, err := chain.ParseAddress(req.Wallet)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	asset, err := chain.ParseAddress(req.Asset)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	recipient, err := chain.ParseAddress(req.Recipient)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.FlashLoan(c.UserContext(), caller, walletID, asset, req.Amount, recipient); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// CanFlashLoan reports whether a loan of the given size could proceed now.
func (h *Handler) CanFlashLoan(c *fiber.Ctx) error {
	walletID, err := chain.ParseAddress(c.Query("wallet"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	asset, err := chain.ParseAddress(c.Query("asset"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount := uint64(c.QueryInt("amount"))
	ok, err := h.service.CanFlashLoan(c.UserContext(), walletID, asset, amount)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"can_flash_loan": ok})
}

type depositRequest struct {
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

// Deposit adds liquidity to the module under the caller's name.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	asset, err := chain.ParseAddress(req.Asset)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.Deposit(c.UserContext(), caller, asset, req.Amount); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// Withdraw returns previously deposited liquidity to the caller.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	asset, err := chain.ParseAddress(req.Asset)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.Withdraw(c.UserContext(), caller, asset, req.Amount); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// DepositOf returns the caller's recorded deposit for an asset.
func (h *Handler) DepositOf(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	asset, err := chain.ParseAddress(c.Query("asset"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := h.service.DepositOf(c.UserContext(), caller, asset)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"asset": string(asset), "amount": amount})
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrNotAllowed), errors.Is(err, module.ErrOnlyOwnerOrAllowed):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrTokenNotAdded),
		errors.Is(err, ErrAmountTooLarge),
		errors.Is(err, ErrInsufficientDeposit),
		errors.Is(err, module.ErrWalletNotEnabled):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, wallet.ErrBlockAlreadyUsed):
		return fiber.NewError(http.StatusTooManyRequests, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
