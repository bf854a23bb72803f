package ws

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmuslimabdulj/code-relay/internal/usecase"
)

// Hub owns every live connection and the transport groups (one per room).
// Its Run loop is the single dispatcher: registration, disconnects and
// inbound events are handled one at a time, in the order they arrive.
type Hub struct {
	mu     sync.RWMutex
	log    *slog.Logger
	router *Router

	clients    map[string]*Client            // socketID -> client
	groups     map[string]map[string]*Client // roomID -> socketID -> client
	register   chan *Client
	unregister chan *Client
	inbound    chan Inbound
	done       chan struct{}
}

// NewHub creates a Hub routing events against dir
func NewHub(dir *usecase.SessionDirectory, log *slog.Logger) *Hub {
	h := &Hub{
		log:        log,
		clients:    make(map[string]*Client),
		groups:     make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan Inbound),
		done:       make(chan struct{}),
	}
	h.router = NewRouter(dir, h, log)
	return h
}

// Run starts the hub's main event loop. It returns when ctx is cancelled,
// after closing every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mu.Lock()
			h.clients[client.ID] = client
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("connection registered", "socket", client.ID, "connections", count)

		case client := <-h.unregister:
			h.removeClient(client)

		case in := <-h.inbound:
			h.router.Dispatch(in)
		}
	}
}

// removeClient runs the disconnect protocol and releases the connection.
// Unknown or already removed clients are ignored.
func (h *Hub) removeClient(client *Client) {
	if client == nil {
		return
	}

	h.mu.RLock()
	_, ok := h.clients[client.ID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	h.router.Disconnect(client.ID)

	h.mu.Lock()
	delete(h.clients, client.ID)
	for roomID, members := range h.groups {
		if _, member := members[client.ID]; member {
			delete(members, client.ID)
			if len(members) == 0 {
				delete(h.groups, roomID)
			}
		}
	}
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("connection unregistered", "socket", client.ID, "connections", count)
}

// shutdownClients closes all active connections
func (h *Hub) shutdownClients() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
	h.log.Info("hub stopped", "closed_connections", len(clients))
}
