package handlers

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	ws "github.com/user/cryptodash/backend/internal/websocket"
)

// EventsWSEndpoint streams dashboard events to a connected view. The current
// asset list is sent first so a fresh view can render without polling.
func (h *Handler) EventsWSEndpoint(c *websocket.Conn) {
	client := ws.NewClient()

	if initial, err := json.Marshal(ws.Event{Type: ws.EventAssets, Payload: h.state.Assets()}); err == nil {
		client.Send <- initial
	}
	if !h.hub.Add(client) {
		h.logger.Info("websocket connection refused, hub stopped", zap.String("remote", c.RemoteAddr().String()))
		return
	}
	h.logger.Info("websocket connection established", zap.String("client", client.ID), zap.String("remote", c.RemoteAddr().String()))

	// The connection is closed once this handler returns, so the read pump
	// runs here and the handler waits for the write pump before leaving.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.clientWritePump(c, client)
	}()

	h.clientReadPump(c, client)
	h.hub.Remove(client)
	<-writerDone
}

// clientWritePump pumps messages from the hub to the websocket connection
// until the hub closes the client's channel.
func (h *Handler) clientWritePump(c *websocket.Conn, client *ws.Client) {
	for message := range client.Send {
		if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Debug("websocket write failed", zap.String("client", client.ID), zap.Error(err))
			h.hub.Remove(client)
			// Drain so the hub never blocks on us before it notices the removal.
			for range client.Send {
			}
			return
		}
	}
	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// clientReadPump discards incoming messages and returns when the peer goes away.
func (h *Handler) clientReadPump(c *websocket.Conn, client *ws.Client) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Info("websocket client disconnected unexpectedly", zap.String("client", client.ID), zap.Error(err))
			}
			return
		}
	}
}
