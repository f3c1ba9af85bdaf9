package router

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/action"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/middleware"
	"github.com/hyperwallet/hyperwallet/internal/module"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

// Handler exposes one action-router variant over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds an action-router HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) walletAndCaller(c *fiber.Ctx) (chain.Address, chain.Address, error) {
	caller, err := middleware.Caller(c)
	if err != nil {
		return "", "", err
	}
	walletID, err := chain.ParseAddress(c.Params("walletId"))
	if err != nil {
		return "", "", fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return walletID, caller, nil
}

type rawActionRequest struct {
	Payloads []string `json:"payloads"`
}

// DoActions submits pre-encoded payloads through the raw entry point.
func (h *Handler) DoActions(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req rawActionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(req.Payloads) == 0 {
		return fiber.NewError(http.StatusBadRequest, "at least one payload required")
	}
	payloads := make([][]byte, 0, len(req.Payloads))
	for _, p := range req.Payloads {
		raw, err := hex.DecodeString(strings.TrimPrefix(p, "0x"))
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "payload is not valid hex")
		}
		payloads = append(payloads, raw)
	}
	if err := h.service.DoActions(c.UserContext(), walletID, caller, payloads); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

type limitOrderRequest struct {
	Asset      uint32 `json:"asset"`
	IsBuy      bool   `json:"is_buy"`
	LimitPx    uint64 `json:"limit_px"`
	Size       uint64 `json:"size"`
	ReduceOnly bool   `json:"reduce_only"`
	Tif        uint8  `json:"tif"`
	Cloid      string `json:"cloid"`
}

// PlaceLimitOrder submits a limit order for the wallet.
func (h *Handler) PlaceLimitOrder(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req limitOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	cloid, err := action.ParseCloid(req.Cloid)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	err = h.service.PlaceLimitOrder(c.UserContext(), walletID, caller,
		req.Asset, req.IsBuy, req.LimitPx, req.Size, req.ReduceOnly, req.Tif, cloid)
	if err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

type vaultTransferRequest struct {
	Vault     string `json:"vault"`
	IsDeposit bool   `json:"is_deposit"`
	Usd       uint64 `json:"usd"`
}

// TransferVault deposits into or withdraws from a vault.
func (h *Handler) TransferVault(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req vaultTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	vault, err := chain.ParseAddress(req.Vault)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.TransferVault(c.UserContext(), walletID, caller, vault, req.IsDeposit, req.Usd); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

type delegateStakeRequest struct {
	Validator    string `json:"validator"`
	Wei          uint64 `json:"wei"`
	IsUndelegate bool   `json:"is_undelegate"`
}

// DelegateStake delegates or undelegates stake to a validator.
func (h *Handler) DelegateStake(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req delegateStakeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	validator, err := chain.ParseAddress(req.Validator)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.DelegateStake(c.UserContext(), walletID, caller, validator, req.Wei, req.IsUndelegate); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

type stakeAmountRequest struct {
	Wei uint64 `json:"wei"`
}

// DepositStake moves spot balance into staking.
func (h *Handler) DepositStake(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req stakeAmountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.DepositStake(c.UserContext(), walletID, caller, req.Wei); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// WithdrawStake moves staking balance back to spot.
func (h *Handler) WithdrawStake(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req stakeAmountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.WithdrawStake(c.UserContext(), walletID, caller, req.Wei); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

type spotSendRequest struct {
	Destination string `json:"destination"`
	Token       uint64 `json:"token"`
	Wei         uint64 `json:"wei"`
}

// SendSpot sends a spot balance to another account.
func (h *Handler) SendSpot(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req spotSendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	destination, err := chain.ParseAddress(req.Destination)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.SendSpot(c.UserContext(), walletID, caller, destination, req.Token, req.Wei); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

type usdClassRequest struct {
	Ntl    uint64 `json:"ntl"`
	ToPerp bool   `json:"to_perp"`
}

// TransferUsdClass moves USD between spot and perp classes.
func (h *Handler) TransferUsdClass(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req usdClassRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.TransferUsdClass(c.UserContext(), walletID, caller, req.Ntl, req.ToPerp); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

type finalizeRequest struct {
	Token       uint64 `json:"token"`
	Variant     uint8  `json:"variant"`
	CreateNonce uint64 `json:"create_nonce"`
}

// FinalizeEVMContract finalizes an EVM contract link for a token.
func (h *Handler) FinalizeEVMContract(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req finalizeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.FinalizeEVMContract(c.UserContext(), walletID, caller, req.Token, req.Variant, req.CreateNonce); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

type addAPIWalletRequest struct {
	APIWallet string `json:"api_wallet"`
	Name      string `json:"name"`
}

// AddAPIWallet registers an API wallet for the account.
func (h *Handler) AddAPIWallet(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req addAPIWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	apiWallet, err := chain.ParseAddress(req.APIWallet)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.AddAPIWallet(c.UserContext(), walletID, caller, apiWallet, req.Name); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

type cancelOrderRequest struct {
	Asset uint32 `json:"asset"`
	Oid   uint64 `json:"oid"`
	Cloid string `json:"cloid"`
}

// CancelOrderByOid cancels an order by numeric id.
func (h *Handler) CancelOrderByOid(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req cancelOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.CancelOrderByOid(c.UserContext(), walletID, caller, req.Asset, req.Oid); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// CancelOrderByCloid cancels an order by client order id.
func (h *Handler) CancelOrderByCloid(c *fiber.Ctx) error {
	walletID, caller, err := h.walletAndCaller(c)
	if err != nil {
		return err
	}
	var req cancelOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	cloid, err := action.ParseCloid(req.Cloid)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.CancelOrderByCloid(c.UserContext(), walletID, caller, req.Asset, cloid); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusAccepted)
}

func statusError(err error) error {
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, module.ErrOnlyOwnerOrAllowed),
		errors.Is(err, ErrRawActionDisabled),
		errors.Is(err, ErrTypedActionDisabled):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, wallet.ErrBlockAlreadyUsed):
		return fiber.NewError(http.StatusTooManyRequests, err.Error())
	case errors.Is(err, module.ErrWalletNotEnabled),
		errors.Is(err, ErrTifNotSupported),
		errors.Is(err, ErrVariantNotSupported),
		errors.Is(err, ErrNotEnoughAmount),
		errors.Is(err, ErrAmountLocked),
		errors.Is(err, action.ErrNameTooLong):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
