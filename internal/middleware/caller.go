package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/auth"
	"github.com/hyperwallet/hyperwallet/internal/chain"
)

const callerLocal = "caller_address"

// CallerAuth validates the bearer token and stores the caller address it
// binds in the request context. Every domain operation reads the caller from
// here; there is no other way to impersonate an address.
func CallerAuth(authSvc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		address, err := authSvc.Verify(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(callerLocal, string(address))
		return c.Next()
	}
}

// Caller returns the authenticated caller address for the request.
func Caller(c *fiber.Ctx) (chain.Address, error) {
	raw, _ := c.Locals(callerLocal).(string)
	if raw == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "caller not authenticated")
	}
	return chain.Address(raw), nil
}
