package ws

import (
	"log/slog"
	"sync"
)

// Conn is one live push connection. *websocket.Conn satisfies it; tests use
// in-memory stubs.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Event is the envelope pushed to clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub routes events to every live connection of an addressed actor. An
// actor may hold any number of concurrent connections (multi-device).
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]Conn
}

func NewHub() *Hub {
	return &Hub{connections: make(map[string][]Conn)}
}

// Register adds a live connection under the actor id.
func (h *Hub) Register(actorID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[actorID] = append(h.connections[actorID], conn)
	slog.Info("websocket connected", "actor_id", actorID, "connections", len(h.connections[actorID]))
}

// Deregister removes exactly that connection; the actor entry is pruned
// once no connections remain.
func (h *Hub) Deregister(actorID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.connections[actorID]
	for i, c := range conns {
		if c == conn {
			h.connections[actorID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[actorID]) == 0 {
		delete(h.connections, actorID)
	}
	slog.Info("websocket disconnected", "actor_id", actorID)
}

// Push delivers the event to every live connection of the actor.
// Best-effort: a failed write is logged and does not prevent delivery to
// the remaining connections, and the triggering domain write has already
// committed by the time Push runs.
func (h *Hub) Push(actorID string, evt Event) {
	h.mu.RLock()
	conns := make([]Conn, len(h.connections[actorID]))
	copy(conns, h.connections[actorID])
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(evt); err != nil {
			slog.Error("websocket push failed", "actor_id", actorID, "error", err)
		}
	}
}

// ConnectionCount reports the number of live connections for an actor.
func (h *Hub) ConnectionCount(actorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[actorID])
}
