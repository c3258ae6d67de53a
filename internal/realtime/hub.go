// internal/realtime/hub.go
package realtime

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type userMessage struct {
	userID  string
	payload []byte
}

// Hub tracks websocket clients per user and delivers notifications to all of
// a user's open connections. All mutation happens on the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	messages   chan userMessage
	done       chan struct{}

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		messages:   make(chan userMessage, 256),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*Client]struct{}),
	}
}

// Run processes registrations and deliveries until ctx is cancelled, then
// closes every open connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]struct{})
			}
			h.clients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			logrus.WithFields(logrus.Fields{"user_id": client.UserID, "client_id": client.ID}).Debug("Websocket client registered")

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.messages:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg userMessage) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[msg.userID]))
	for client := range h.clients[msg.userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- msg.payload:
		default:
			// Slow consumer; drop it rather than block every other user.
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.send)
}

// Register adds a client. It returns false when the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser queues payload for every connection of userID.
func (h *Hub) SendToUser(userID string, payload []byte) {
	select {
	case h.messages <- userMessage{userID: userID, payload: payload}:
	case <-h.done:
	}
}

// ConnectionCount returns the number of open connections for userID.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
