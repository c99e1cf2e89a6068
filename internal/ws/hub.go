package ws

import (
	"encoding/json"
	"sync"
)

// Client is one WebSocket subscriber, pinned to a workspace.
type Client struct {
	UserID      uint64
	WorkspaceID uint64
	Send        chan []byte

	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Hub tracks subscribers grouped by workspace and fans events out to them.
// Slow consumers are skipped, never waited on.
type Hub struct {
	mu          sync.RWMutex
	byWorkspace map[uint64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byWorkspace: make(map[uint64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byWorkspace[c.WorkspaceID] == nil {
		h.byWorkspace[c.WorkspaceID] = make(map[*Client]struct{})
	}
	h.byWorkspace[c.WorkspaceID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byWorkspace[c.WorkspaceID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byWorkspace, c.WorkspaceID)
		}
	}
}

func (h *Hub) BroadcastToWorkspace(workspaceID uint64, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	m := h.byWorkspace[workspaceID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byWorkspace {
		n += len(m)
	}
	return n
}
