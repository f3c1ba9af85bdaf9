package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/middleware"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type walletResponse struct {
	ID              string `json:"id"`
	TokenID         uint64 `json:"token_id"`
	NextActionBlock uint64 `json:"next_action_block"`
}

// Get returns wallet state.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := chain.ParseAddress(c.Params("walletId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(walletResponse{
		ID:              string(w.ID),
		TokenID:         w.TokenID,
		NextActionBlock: w.NextActionBlock,
	})
}

type toggleModuleRequest struct {
	Module  string `json:"module"`
	Enabled bool   `json:"enabled"`
}

// ToggleModule enables or disables a module for the wallet.
func (h *Handler) ToggleModule(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := chain.ParseAddress(c.Params("walletId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var req toggleModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	moduleAddr, err := chain.ParseAddress(req.Module)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.ToggleModule(c.UserContext(), id, caller, moduleAddr, req.Enabled); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

type toggleAllowanceRequest struct {
	Module   string `json:"module"`
	Delegate string `json:"delegate"`
	Allowed  bool   `json:"allowed"`
}

// ToggleAllowance marks a delegate allowed or not for a module on the wallet.
func (h *Handler) ToggleAllowance(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := chain.ParseAddress(c.Params("walletId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var req toggleAllowanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	moduleAddr, err := chain.ParseAddress(req.Module)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	delegate, err := chain.ParseAddress(req.Delegate)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.ToggleAllowance(c.UserContext(), id, caller, moduleAddr, delegate, req.Allowed); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

type bridgeRequest struct {
	Asset  string `json:"asset,omitempty"`
	Amount uint64 `json:"amount"`
}

// BridgeHype moves the caller's native-asset balance toward the wallet's
// settlement account.
func (h *Handler) BridgeHype(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := chain.ParseAddress(c.Params("walletId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var req bridgeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.TransferHypeToCoreSpot(c.UserContext(), id, caller, req.Amount); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// BridgeToken moves a token balance toward the wallet's settlement account.
func (h *Handler) BridgeToken(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := chain.ParseAddress(c.Params("walletId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var req bridgeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	asset, err := chain.ParseAddress(req.Asset)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.TransferTokenToCoreSpot(c.UserContext(), id, caller, asset, req.Amount); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// Withdraw is the controller's EVM-side exit.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := chain.ParseAddress(c.Params("walletId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var req bridgeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	asset, err := chain.ParseAddress(req.Asset)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.Withdraw(c.UserContext(), id, caller, asset, req.Amount); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrModuleNotEnabled):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrModuleNotActive), errors.Is(err, ErrTokenNotSupported), errors.Is(err, ErrAmountTooLarge):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrBlockAlreadyUsed):
		return fiber.NewError(http.StatusTooManyRequests, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
