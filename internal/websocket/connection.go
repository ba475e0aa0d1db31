package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connWrapper adapts *websocket.Conn to Connection. Writes are serialised
// because gorilla allows one concurrent writer.
type connWrapper struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WrapConn wraps a gorilla connection
func WrapConn(conn *websocket.Conn) Connection {
	return &connWrapper{conn: conn}
}

func (w *connWrapper) WriteMessage(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(messageType, data)
}

func (w *connWrapper) ReadMessage() (int, []byte, error) {
	return w.conn.ReadMessage()
}

func (w *connWrapper) Close() error {
	return w.conn.Close()
}

func (w *connWrapper) SetReadDeadline(t time.Time) error {
	return w.conn.SetReadDeadline(t)
}

func (w *connWrapper) SetWriteDeadline(t time.Time) error {
	return w.conn.SetWriteDeadline(t)
}

func (w *connWrapper) SetReadLimit(limit int64) {
	w.conn.SetReadLimit(limit)
}

func (w *connWrapper) SetPongHandler(h func(string) error) {
	w.conn.SetPongHandler(h)
}

func (w *connWrapper) RemoteAddr() string {
	if addr := w.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
