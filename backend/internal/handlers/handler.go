package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/user/cryptodash/backend/internal/dashboard"
	"github.com/user/cryptodash/backend/internal/ledger"
	"github.com/user/cryptodash/backend/internal/registry"
	ws "github.com/user/cryptodash/backend/internal/websocket"
)

// Handler exposes the dashboard state over HTTP and websocket.
type Handler struct {
	state  *dashboard.State
	hub    *ws.Hub
	logger *zap.Logger
}

// New creates a Handler. hub may be nil, in which case the event feed is not routed.
func New(state *dashboard.State, hub *ws.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{state: state, hub: hub, logger: logger.Named("handlers")}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidSide),
		errors.Is(err, dashboard.ErrInvalidAsset):
		return fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrNoPriceData):
		return fiber.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity
	}

	var netErr *registry.NetworkError
	if errors.As(err, &netErr) {
		if netErr.Status == fiber.StatusNotFound {
			return fiber.StatusNotFound
		}
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// fail writes err as a JSON error body with the mapped status.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Debug("request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
