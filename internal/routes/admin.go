package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hyperwallet/hyperwallet/internal/activation"
	"github.com/hyperwallet/hyperwallet/internal/bank"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/ledgerbook"
	"github.com/hyperwallet/hyperwallet/internal/oracle"
	"github.com/hyperwallet/hyperwallet/internal/registry"
)

// RegisterAdminRoutes wires operator-facing endpoints: the module allowlist,
// the token book, settlement-state ingest, and external bank movements.
func RegisterAdminRoutes(r fiber.Router, rh *registry.Handler, book ledgerbook.Book, ingest oracleIngest, bk bank.Bank, ah *activation.Handler) {
	r.Post("/modules", rh.SetModuleAllowed)
	r.Get("/modules/:module", rh.GetModuleAllowed)
	r.Post("/activation/reclaim", ah.Reclaim)

	r.Post("/tokens", func(c *fiber.Ctx) error {
		var req struct {
			Asset         string `json:"asset"`
			SystemAddress string `json:"system_address"`
			CoreToken     uint64 `json:"core_token"`
			Name          string `json:"name"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		asset, err := chain.ParseAddress(req.Asset)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		system, err := chain.ParseAddress(req.SystemAddress)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		token := ledgerbook.Token{Asset: asset, SystemAddress: system, CoreToken: req.CoreToken, Name: req.Name}
		if err := book.Add(c.UserContext(), token); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return c.SendStatus(http.StatusCreated)
	})

	r.Post("/oracle/spot-balances", func(c *fiber.Ctx) error {
		var req struct {
			Account  string `json:"account"`
			Token    uint64 `json:"token"`
			Total    uint64 `json:"total"`
			Hold     uint64 `json:"hold"`
			EntryNtl uint64 `json:"entry_ntl"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		account, err := chain.ParseAddress(req.Account)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		b := oracle.SpotBalance{Total: req.Total, Hold: req.Hold, EntryNtl: req.EntryNtl}
		if err := ingest.UpsertSpotBalance(c.UserContext(), account, req.Token, b); err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(http.StatusNoContent)
	})

	r.Post("/oracle/withdrawable", func(c *fiber.Ctx) error {
		var req struct {
			Account string `json:"account"`
			Amount  uint64 `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		account, err := chain.ParseAddress(req.Account)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if err := ingest.UpsertWithdrawable(c.UserContext(), account, req.Amount); err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(http.StatusNoContent)
	})

	r.Post("/oracle/vault-equity", func(c *fiber.Ctx) error {
		var req struct {
			Account     string `json:"account"`
			Vault       string `json:"vault"`
			Equity      uint64 `json:"equity"`
			LockedUntil uint64 `json:"locked_until"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		account, err := chain.ParseAddress(req.Account)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		vault, err := chain.ParseAddress(req.Vault)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		e := oracle.VaultEquity{Equity: req.Equity, LockedUntil: req.LockedUntil}
		if err := ingest.UpsertVaultEquity(c.UserContext(), account, vault, e); err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(http.StatusNoContent)
	})

	r.Post("/oracle/users", func(c *fiber.Ctx) error {
		var req struct {
			Account string `json:"account"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		account, err := chain.ParseAddress(req.Account)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if err := ingest.UpsertUser(c.UserContext(), account); err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(http.StatusNoContent)
	})

	externalMove := func(in bool) fiber.Handler {
		return func(c *fiber.Ctx) error {
			var req struct {
				Asset      string `json:"asset"`
				Holder     string `json:"holder"`
				Amount     int64  `json:"amount"`
				ClientTxID string `json:"client_tx_id"`
			}
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(http.StatusBadRequest, err.Error())
			}
			asset, err := chain.ParseAddress(req.Asset)
			if err != nil {
				return fiber.NewError(http.StatusBadRequest, err.Error())
			}
			holder, err := chain.ParseAddress(req.Holder)
			if err != nil {
				return fiber.NewError(http.StatusBadRequest, err.Error())
			}
			if req.Amount <= 0 {
				return fiber.NewError(http.StatusBadRequest, "amount must be positive")
			}
			txID := req.ClientTxID
			if txID == "" {
				txID = uuid.NewString()
			}
			code := bank.AccountCode(asset, holder)
			if in {
				_, err = bk.ExternalIn(c.UserContext(), code, txID, req.Amount)
			} else {
				_, err = bk.ExternalOut(c.UserContext(), code, txID, req.Amount)
			}
			if err != nil {
				return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
			}
			return c.SendStatus(http.StatusAccepted)
		}
	}
	r.Post("/bank/external-in", externalMove(true))
	r.Post("/bank/external-out", externalMove(false))

	r.Get("/bank/balance", func(c *fiber.Ctx) error {
		asset, err := chain.ParseAddress(c.Query("asset"))
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		holder, err := chain.ParseAddress(c.Query("holder"))
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		balance, err := bk.Balance(c.UserContext(), bank.AccountCode(asset, holder))
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"asset": asset, "holder": holder, "balance": balance})
	})
}
