package websocket

import (
	"errors"
	"sync"
	"time"
)

// ErrMockClosed is returned by a closed MockConnection
var ErrMockClosed = errors.New("mock connection closed")

// MockConnection is an in-memory Connection for tests. Frames pushed with
// Push are returned by ReadMessage in order; ReadMessage blocks until a frame
// arrives or the connection is closed.
type MockConnection struct {
	mu sync.Mutex

	inbound chan MockMessage
	written []MockMessage
	closed  bool
	done    chan struct{}

	// WriteErr, when set, is returned by every WriteMessage call
	WriteErr error

	RemoteAddress string
	ReadLimit     int64
	ReadDeadline  time.Time
	WriteDeadline time.Time
	PongHandler   func(string) error
}

// MockMessage is one frame passing through a MockConnection
type MockMessage struct {
	Type int
	Data []byte
}

// NewMockConnection creates an open mock connection
func NewMockConnection() *MockConnection {
	return &MockConnection{
		inbound:       make(chan MockMessage, 32),
		done:          make(chan struct{}),
		RemoteAddress: "127.0.0.1:8080",
	}
}

// Push queues a frame for ReadMessage
func (m *MockConnection) Push(messageType int, data []byte) {
	m.inbound <- MockMessage{Type: messageType, Data: data}
}

// WriteMessage records the frame
func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMockClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.written = append(m.written, MockMessage{Type: messageType, Data: append([]byte(nil), data...)})
	return nil
}

// ReadMessage returns the next pushed frame
func (m *MockConnection) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-m.inbound:
		return msg.Type, msg.Data, nil
	case <-m.done:
		return 0, nil, ErrMockClosed
	}
}

// Close marks the connection closed and unblocks readers
func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// IsClosed reports whether Close was called
func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Written returns a copy of every frame written so far
func (m *MockConnection) Written() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.written))
	copy(out, m.written)
	return out
}

func (m *MockConnection) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadDeadline = t
	return nil
}

func (m *MockConnection) SetWriteDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteDeadline = t
	return nil
}

func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadLimit = limit
}

func (m *MockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PongHandler = h
}

func (m *MockConnection) RemoteAddr() string {
	return m.RemoteAddress
}
