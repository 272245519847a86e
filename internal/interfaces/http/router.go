package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Transactions TransactionService
	Store        string
	Pinger       Pinger
	JWTSecret    string
	Log          zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	health := NewHealthHandler(deps.Store, deps.Pinger)
	app.Get("/health", health.Check)

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	h := NewTransactionHandler(deps.Transactions, deps.Log)

	books := RequireRole(RoleAdmin, RoleAccountant)
	transactions := api.Group("/transactions", books)
	transactions.Post("/", h.Create)
	transactions.Put("/:id", h.Update)
	transactions.Delete("/:id", h.Delete)

	registers := api.Group("/registers", RequireRole(RoleAdmin, RoleAccountant, RoleCashier))
	registers.Post("/:registerId/open", h.OpenRegister)
	registers.Post("/:registerId/close", h.CloseRegister)

	prefixes := api.Group("/prefixes", RequireRole(RoleAdmin, RoleAccountant, RoleCashier))
	prefixes.Get("/:type/next", h.NextNumber)
	prefixes.Post("/:type/reserve", h.ReserveNumber)

	items := api.Group("/items", books)
	items.Post("/:itemId/recalculate", h.RecalculateItem)
}
