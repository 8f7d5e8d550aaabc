package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/user/cryptodash/backend/internal/models"
)

// GetAssets returns the cached asset list.
func (h *Handler) GetAssets(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.state.Assets())
}

// ReloadAssets refreshes the cache from the backend.
func (h *Handler) ReloadAssets(c *fiber.Ctx) error {
	assets, err := h.state.LoadAssets(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(assets)
}

// CreateAsset registers a new asset from a {symbol, name} body.
func (h *Handler) CreateAsset(c *fiber.Ctx) error {
	req := new(models.AssetInput)
	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse request body")
	}

	asset, err := h.state.CreateAsset(c.UserContext(), *req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

// UpdateAsset changes symbol and name of the asset in :id.
func (h *Handler) UpdateAsset(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Invalid asset ID")
	}
	req := new(models.AssetInput)
	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse request body")
	}

	asset, err := h.state.UpdateAsset(c.UserContext(), id, *req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(asset)
}

// DeleteAsset removes the asset in :id.
func (h *Handler) DeleteAsset(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Invalid asset ID")
	}

	if err := h.state.DeleteAsset(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SyncAsset fetches a fresh price sample for :symbol.
func (h *Handler) SyncAsset(c *fiber.Ctx) error {
	sample, err := h.state.Sync(c.UserContext(), c.Params("symbol"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(sample)
}

// GetCard returns the display projection for :symbol.
func (h *Handler) GetCard(c *fiber.Ctx) error {
	symbol := models.NormalizeSymbol(c.Params("symbol"))
	if symbol == "" {
		return badRequest(c, "Symbol parameter is required")
	}
	return c.Status(fiber.StatusOK).JSON(h.state.Card(symbol))
}

// GetHistory returns the backend's stored samples for the asset in :id.
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Invalid asset ID")
	}

	entries, err := h.state.History(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(entries)
}
