package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/auth"
	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// RegisterAuthRoutes wires token issuance. The token binds the caller address
// used for every permission check downstream, so the route is registered
// behind the administrator gate: only the operator mints caller tokens.
//
// TODO: add a self-service flow that verifies an EIP-191 signature over a
// server nonce, so controllers can obtain tokens without the operator.
func RegisterAuthRoutes(r fiber.Router, authSvc *auth.Service) {
	r.Post("/auth/token", func(c *fiber.Ctx) error {
		var req struct {
			Address string `json:"address"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		address, err := chain.ParseAddress(req.Address)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		token, err := authSvc.Issue(address)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "issue token")
		}
		return c.Status(http.StatusOK).JSON(token)
	})
}
