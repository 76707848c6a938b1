package websocket

import (
	"context"
	"sync"

	"github.com/xelth-com/stockmaster/internal/store"
	"go.uber.org/zap"
)

// Hub maintains the set of active clients and the store they subscribe to
type Hub struct {
	store store.Store

	// Registered clients map: ClientID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// closed when Run returns
	quit chan struct{}

	// Mutex for thread-safe access to clients map
	mu  sync.RWMutex
	log *zap.SugaredLogger
}

// NewHub creates a new Hub instance
func NewHub(s store.Store) *Hub {
	return &Hub{
		store:      s,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		clients:    make(map[string]*Client),
		log:        zap.S().Named("ws"),
	}
}

// Run starts the hub's main loop. When ctx ends every client is shut down.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.quit)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.log.Debugw("client connected", "client", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				h.log.Debugw("client disconnected", "client", client.ID, "subscriptions", client.subscriptionCount())
			}
			h.mu.Unlock()
			client.shutdown()

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				client.shutdown()
			}
			h.mu.Unlock()
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
		c.shutdown()
	}
}
