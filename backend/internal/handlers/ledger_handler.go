package handlers

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/user/cryptodash/backend/internal/models"
)

// PlaceOrderRequest defines the expected JSON body for placing an order
type PlaceOrderRequest struct {
	Symbol string  `json:"symbol"` // e.g. "BTC"
	Side   string  `json:"side"`   // "buy" or "sell"
	Amount float64 `json:"amount"` // Units of the asset
}

// PlaceOrderResponse is returned after a successful order.
type PlaceOrderResponse struct {
	Balance float64      `json:"balance"`
	Order   models.Order `json:"order"`
}

// GetLedger returns the balance summary.
func (h *Handler) GetLedger(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.state.Summary())
}

// GetOrders returns the order history, most recent first.
func (h *Handler) GetOrders(c *fiber.Ctx) error {
	orders := slices.Collect(h.state.Orders())
	if orders == nil {
		orders = make([]models.Order, 0)
	}
	return c.Status(fiber.StatusOK).JSON(orders)
}

// PlaceOrder executes a simulated order at the latest synced price.
func (h *Handler) PlaceOrder(c *fiber.Ctx) error {
	req := new(PlaceOrderRequest)
	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse request body")
	}

	symbol := models.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return badRequest(c, "Symbol is required")
	}
	side, err := models.ParseSide(req.Side)
	if err != nil {
		return badRequest(c, "Invalid side, must be 'buy' or 'sell'")
	}

	balance, order, err := h.state.PlaceOrder(symbol, side, req.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(PlaceOrderResponse{Balance: balance, Order: order})
}
