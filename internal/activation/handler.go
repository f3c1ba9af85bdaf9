package activation

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/middleware"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

// Handler exposes activation HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an activation HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type activateRequest struct {
	Wallet  string `json:"wallet"`
	PaidWei uint64 `json:"paid_wei"`
}

// Activate bootstraps a fresh wallet onto the core layer.
func (h *Handler) Activate(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	var req activateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	walletID, err := chain.ParseAddress(req.Wallet)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.Activate(c.UserContext(), caller, walletID, req.PaidWei); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// Reclaim sweeps the module's residual balance back to the admin.
func (h *Handler) Reclaim(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	if err := h.service.Reclaim(c.UserContext(), caller); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// SweepToOperator forwards the module's local balance to the operator.
func (h *Handler) SweepToOperator(c *fiber.Ctx) error {
	if err := h.service.SweepToOperator(c.UserContext()); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrNotAllowed):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrWalletAlreadyEnabled),
		errors.Is(err, ErrWrongHypeAmount),
		errors.Is(err, ErrNotEnoughAmount):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrOneActionPerBlock), errors.Is(err, wallet.ErrBlockAlreadyUsed):
		return fiber.NewError(http.StatusTooManyRequests, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
