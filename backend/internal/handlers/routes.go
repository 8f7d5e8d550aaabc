package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/user/cryptodash/backend/internal/middleware"
)

// Register mounts the dashboard API and event feed on app.
func (h *Handler) Register(app *fiber.App) {
	if h.hub != nil {
		wsGroup := app.Group("/ws")
		wsGroup.Use("/", middleware.RequireUpgrade())
		wsGroup.Get("/events", websocket.New(h.EventsWSEndpoint))
	}

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	assets := api.Group("/assets")
	assets.Get("/", h.GetAssets)
	assets.Post("/", h.CreateAsset)
	assets.Post("/reload", h.ReloadAssets)
	assets.Put("/:id", h.UpdateAsset)
	assets.Delete("/:id", h.DeleteAsset)
	assets.Post("/:symbol/sync", h.SyncAsset)
	assets.Get("/:symbol/card", h.GetCard)
	assets.Get("/:id/history", h.GetHistory)

	ledgerGroup := api.Group("/ledger")
	ledgerGroup.Get("/", h.GetLedger)
	ledgerGroup.Get("/orders", h.GetOrders)
	ledgerGroup.Post("/orders", h.PlaceOrder)
}
