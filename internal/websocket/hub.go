package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a real-time notification. Invalidations tell every session to
// re-query an entity; state messages carry one session's snapshot.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// StateMessage wraps a session snapshot as a "state_changed" message.
func StateMessage(version uint64, snapshot any) Message {
	return NewMessage("state", "changed", 0, map[string]any{
		"version":  version,
		"snapshot": snapshot,
	})
}

// Hub maintains the set of active WebSocket clients, keyed by session.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	h.deliver(msg, func(*Client) bool { return true })
}

// BroadcastExcept sends a message to every client not owned by sessionID.
func (h *Hub) BroadcastExcept(sessionID int64, msg Message) {
	h.deliver(msg, func(c *Client) bool { return c.sessionID != sessionID })
}

// SendTo sends a message to the clients of one session.
func (h *Hub) SendTo(sessionID int64, msg Message) {
	h.deliver(msg, func(c *Client) bool { return c.sessionID == sessionID })
}

func (h *Hub) deliver(msg Message, match func(*Client) bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full; drop message to avoid blocking
			h.logger.Debug("dropped message", "type", msg.Type, "session_id", c.sessionID)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionNotifier broadcasts one session's mutations to all other sessions.
type SessionNotifier struct {
	hub       *Hub
	sessionID int64
}

func (h *Hub) Notifier(sessionID int64) SessionNotifier {
	return SessionNotifier{hub: h, sessionID: sessionID}
}

// Invalidate tells other sessions that entity changed. The originating
// session has already re-queried.
func (n SessionNotifier) Invalidate(entity, action string, id int64) {
	n.hub.BroadcastExcept(n.sessionID, NewMessage(entity, action, id, nil))
}
