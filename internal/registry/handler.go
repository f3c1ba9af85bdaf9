package registry

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/middleware"
)

// Handler exposes registry HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a registry HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type accountResponse struct {
	TokenID    uint64 `json:"token_id"`
	WalletID   string `json:"wallet_id"`
	Controller string `json:"controller"`
}

func toAccountResponse(a Account) accountResponse {
	return accountResponse{
		TokenID:    a.TokenID,
		WalletID:   string(a.WalletID),
		Controller: string(a.Controller),
	}
}

// CreateWallet mints a new wallet owned by the caller.
func (h *Handler) CreateWallet(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	account, err := h.service.CreateWallet(c.UserContext(), caller)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(account))
}

// GetAccount returns the account held under a token id.
func (h *Handler) GetAccount(c *fiber.Ctx) error {
	tokenID, err := strconv.ParseUint(c.Params("tokenId"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid token id")
	}
	account, err := h.service.AccountByToken(c.UserContext(), tokenID)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(toAccountResponse(account))
}

type transferOwnershipRequest struct {
	To string `json:"to"`
}

// TransferOwnership hands the wallet token to a new holder.
func (h *Handler) TransferOwnership(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	tokenID, err := strconv.ParseUint(c.Params("tokenId"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid token id")
	}
	var req transferOwnershipRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	to, err := chain.ParseAddress(req.To)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.TransferOwnership(c.UserContext(), tokenID, caller, to); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

type allowModuleRequest struct {
	Module  string `json:"module"`
	Allowed bool   `json:"allowed"`
}

// SetModuleAllowed adds or removes a module from the global allowlist.
// Admin only; enforced by middleware at the route level.
func (h *Handler) SetModuleAllowed(c *fiber.Ctx) error {
	var req allowModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	module, err := chain.ParseAddress(req.Module)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Allowed {
		err = h.service.AllowModule(c.UserContext(), module)
	} else {
		err = h.service.DisallowModule(c.UserContext(), module)
	}
	if err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetModuleAllowed reports whether a module is on the allowlist.
func (h *Handler) GetModuleAllowed(c *fiber.Ctx) error {
	module, err := chain.ParseAddress(c.Params("module"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	allowed, err := h.service.IsModuleAllowed(c.UserContext(), module)
	if err != nil {
		return statusError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"module": string(module), "allowed": allowed})
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotTokenOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrTokenNotSupported):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
