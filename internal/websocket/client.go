package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"strakdash/internal/config"
	"strakdash/internal/dashboard"
	apperrors "strakdash/internal/errors"
	"strakdash/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Outbound buffer per client
	sendBuffer = 64
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Timings controls the client's keepalive and read limits
type Timings struct {
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxMessageSize  int64
	DispatchTimeout time.Duration
}

// TimingsFrom derives client timings from the WebSocket configuration.
// The ping period is clamped below the pong wait.
func TimingsFrom(cfg config.WebSocketConfig) Timings {
	t := Timings{
		WriteWait:       writeWait,
		PongWait:        cfg.PongWait,
		PingPeriod:      cfg.PingPeriod,
		MaxMessageSize:  cfg.MaxMessageSize,
		DispatchTimeout: 30 * time.Second,
	}
	if t.PongWait <= 0 {
		t.PongWait = 60 * time.Second
	}
	if t.PingPeriod <= 0 || t.PingPeriod >= t.PongWait {
		t.PingPeriod = (t.PongWait * 9) / 10
	}
	if t.MaxMessageSize <= 0 {
		t.MaxMessageSize = 4096
	}
	return t
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub        *Hub
	conn       Connection
	dispatcher Dispatcher
	timings    Timings

	// Buffered channel of outbound messages, closed by the hub
	send   chan []byte
	sendMu sync.Mutex
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesReceived atomic.Int64
	messagesSent     atomic.Int64
}

// NewClient creates a client for an established connection
func NewClient(hub *Hub, conn Connection, dispatcher Dispatcher, timings Timings, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)
	if traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		dispatcher:  dispatcher,
		timings:     timings,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// ID returns the client's identifier
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// enqueue queues a message without blocking. It reports false when the
// buffer is full or the message cannot be encoded.
func (c *Client) enqueue(m Message) bool {
	payload, err := encode(m)
	if err != nil {
		c.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", m.Type))
		return false
	}
	return c.trySend(payload)
}

// trySend queues payload unless the buffer is full or the client is closed
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel once
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads dashboard events from the connection and answers each one.
// It unregisters the client when the connection ends.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.context(), "WebSocket client disconnected (readPump)",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived.Load()))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.timings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.timings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.timings.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
		c.messagesReceived.Add(1)

		c.handle(message)
	}
}

// handle decodes one client frame and queues the reply
func (c *Client) handle(message []byte) {
	var ev dashboard.Event
	if err := json.Unmarshal(message, &ev); err != nil {
		c.reply(NewMessage(TypeError, errorData(apperrors.InvalidRequestWithError(err)), c.traceID))
		return
	}

	switch {
	case ev.Type == TypeHeartbeat:
		c.logger.Debug("Heartbeat received")
		return
	case ev.Type == "":
		c.reply(NewMessage(TypeError, errorData(apperrors.ErrValidation("type", "type is required")), c.traceID))
		return
	}

	ctx, cancel := context.WithTimeout(c.context(), c.timings.DispatchTimeout)
	defer cancel()

	res, err := c.dispatcher.Dispatch(ctx, ev)
	if err != nil {
		c.logger.WarnContext(ctx, "Dashboard event failed",
			slog.String("event", string(ev.Type)),
			slog.String("error", err.Error()))
		c.reply(NewMessage(TypeError, errorData(err), c.traceID))
		return
	}
	c.reply(NewMessage(ResultType(string(ev.Type)), res, c.traceID))
}

func (c *Client) reply(m Message) {
	if !c.enqueue(m) {
		c.logger.Warn("Client send buffer full, reply dropped",
			slog.String("message_type", m.Type))
	}
}

// WritePump pumps messages from the hub to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.timings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.InfoContext(c.context(), "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent.Load()))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.timings.WriteWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent.Add(1)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.timings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
