package websocket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types pushed to connected views.
const (
	EventAssets = "assets" // Asset cache was reloaded
	EventSample = "sample" // A sync appended a price sample
	EventOrder  = "order"  // An order was executed
)

// Event is a dashboard state change, sent to clients as JSON.
type Event struct {
	Type    string `json:"type"`
	Symbol  string `json:"symbol,omitempty"`
	Payload any    `json:"payload"`
}

// Client represents a single WebSocket client connection.
type Client struct {
	ID   string
	Send chan []byte // Buffered channel for outbound messages
}

// NewClient creates a client with a buffered outbound channel.
func NewClient() *Client {
	return &Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, 256),
	}
}

// Hub manages WebSocket clients and broadcasts dashboard events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
}

// NewHub creates a Hub. Call Run to start its event loop.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.Named("hub"),
	}
}

// Run starts the Hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	h.logger.Info("starting websocket hub")
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.logger.Debug("client registered", zap.String("client", client.ID))

		case client := <-h.Unregister:
			h.remove(client)

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Client's send buffer is full, drop it
					h.logger.Warn("client send buffer full, dropping", zap.String("client", client.ID))
					h.remove(client)
				}
			}

		case <-h.done:
			for client := range h.clients {
				h.remove(client)
			}
			h.logger.Info("websocket hub stopped")
			return
		}
	}
}

// remove must only be called from the Run goroutine.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
		h.logger.Debug("client unregistered", zap.String("client", client.ID))
	}
}

// Add registers a client and reports whether the hub accepted it. Once the
// hub has stopped the client is not registered and its channel is closed.
func (h *Hub) Add(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		close(client.Send)
		return false
	}
}

// Remove unregisters a client. It is a no-op once the hub has stopped.
func (h *Hub) Remove(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Publish encodes an event and queues it for broadcast.
// It never blocks: if the broadcast queue is full the event is dropped.
func (h *Hub) Publish(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshalling event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("broadcast queue full, dropping event", zap.String("type", event.Type))
	}
}

// Stop terminates the event loop and closes every client channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
