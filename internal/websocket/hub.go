package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"strakdash/internal/infrastructure"
)

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages for every client
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu       sync.RWMutex
	logger   *slog.Logger
	observer ClientObserver

	totalConnections int64

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub. The observer may be nil.
func NewHub(logger *slog.Logger, observer ClientObserver) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		observer:   observer,
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop. It returns once Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))
			h.clientsChanged(ctx, 1)

			welcome := NewMessage(TypeConnection, map[string]interface{}{
				"status":    "connected",
				"message":   "Connected to dashboard",
				"client_id": client.id,
			}, client.traceID)
			if !client.enqueue(welcome) {
				h.logger.WarnContext(ctx, "Failed to send connection message - client buffer full",
					slog.String("client_id", client.id))
			}

		case client := <-h.unregister:
			h.remove(client, "Client unregistered")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failCount := 0
			for _, client := range clients {
				if !client.trySend(message) {
					failCount++
					h.remove(client, "Client send buffer full, disconnecting")
				}
			}

			h.logger.Debug("Broadcast message to clients",
				slog.Int("client_count", len(clients)),
				slog.Int("fail_count", failCount),
				slog.Int("message_size", len(message)))
		}
	}
}

func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	client.closeSend()
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.context()
	h.logger.InfoContext(ctx, reason,
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
	h.clientsChanged(ctx, -1)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		h.remove(client, "Client closed on shutdown")
	}
}

func (h *Hub) clientsChanged(ctx context.Context, delta int64) {
	if h.observer != nil {
		h.observer.ClientsChanged(ctx, delta)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast sends a message to every connected client
func (h *Hub) Broadcast(msgType string, data interface{}) {
	payload, err := encode(NewMessage(msgType, data, ""))
	if err != nil {
		h.logger.Error("Error marshaling broadcast message",
			slog.String("error", err.Error()),
			slog.String("message_type", msgType))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConnections returns the number of clients registered since start
func (h *Hub) TotalConnections() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConnections
}

// Stop shuts the hub down and closes every client's send channel
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.quit)
}
