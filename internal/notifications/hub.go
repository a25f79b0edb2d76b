// internal/notifications/hub.go

package notifications

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// WSEvent is the frame pushed to connected clients
type WSEvent struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub maintains the active websocket connections and pushes notification
// events to them. One connection per user; a newer connection replaces the
// older one.
type Hub struct {
	clients    map[int64]*Client
	clientsMux sync.RWMutex

	register   chan *Client
	unregister chan *Client

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[int64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	defer h.cleanup()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	if old, exists := h.clients[client.userID]; exists {
		old.close()
	}
	h.clients[client.userID] = client

	log.Printf("User %d connected to notification stream. Total clients: %d", client.userID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	if current, exists := h.clients[client.userID]; exists && current == client {
		client.close()
		delete(h.clients, client.userID)
		log.Printf("User %d disconnected from notification stream. Total clients: %d", client.userID, len(h.clients))
	}
}

// SendToUser pushes an event to the user's live connection, if any.
// Returns false when the user is not connected.
func (h *Hub) SendToUser(userID int64, event WSEvent) bool {
	h.clientsMux.RLock()
	client, exists := h.clients[userID]
	h.clientsMux.RUnlock()

	if !exists {
		return false
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling notification event: %v", err)
		return false
	}

	select {
	case client.send <- data:
		return true
	default:
		// Slow consumer, drop the connection
		go func() { h.unregister <- client }()
		return false
	}
}

func (h *Hub) IsUserOnline(userID int64) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

func (h *Hub) ActiveConnections() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

func (h *Hub) Shutdown() {
	h.cancel()
}

func (h *Hub) cleanup() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	for _, client := range h.clients {
		client.close()
	}
	h.clients = make(map[int64]*Client)
}
