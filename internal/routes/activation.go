package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hyperwallet/hyperwallet/internal/activation"
)

// RegisterActivationRoutes wires the account-activation endpoints.
func RegisterActivationRoutes(r fiber.Router, h *activation.Handler) {
	r.Post("/activation/activate", h.Activate)
	r.Post("/activation/reclaim", h.Reclaim)
	r.Post("/activation/sweep", h.SweepToOperator)
}
