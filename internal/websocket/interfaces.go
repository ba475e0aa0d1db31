package websocket

import (
	"context"
	"time"

	"strakdash/internal/dashboard"
)

// Connection defines the subset of a WebSocket connection the client uses.
// It lets tests drive a client without a network.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// Dispatcher runs dashboard events received from clients
type Dispatcher interface {
	Dispatch(ctx context.Context, ev dashboard.Event) (*dashboard.Result, error)
}

// ClientObserver is told whenever a client connects (+1) or leaves (-1)
type ClientObserver interface {
	ClientsChanged(ctx context.Context, delta int64)
}
