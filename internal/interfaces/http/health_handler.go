package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger verifica el almacenamiento; nil cuando el driver es memory.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler GET /health (público).
type HealthHandler struct {
	store  string
	pinger Pinger
}

func NewHealthHandler(store string, pinger Pinger) *HealthHandler {
	return &HealthHandler{store: store, pinger: pinger}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "store": h.store})
		}
	}
	return c.JSON(fiber.Map{"status": "ok", "store": h.store})
}
