package chat

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	maxInbound = 512
)

// WSTransport pushes the same JSON events as text frames. Heartbeats are ping
// control frames.
type WSTransport struct {
	conn     *websocket.Conn
	pongWait time.Duration
}

// NewWSTransport allows three missed heartbeats before the peer is considered gone.
func NewWSTransport(conn *websocket.Conn, heartbeat time.Duration) *WSTransport {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &WSTransport{conn: conn, pongWait: 3 * heartbeat}
}

func (t *WSTransport) WriteEvent(payload []byte) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

func (t *WSTransport) WriteHeartbeat() error {
	return t.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
}

func (t *WSTransport) Close() error {
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return t.conn.Close()
}

// ReadPump discards inbound frames and calls cancel once the peer goes away.
// The channel is push only; reading is needed to process pong and close frames.
func (t *WSTransport) ReadPump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	t.conn.SetReadLimit(maxInbound)
	_ = t.conn.SetReadDeadline(time.Now().Add(t.pongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(t.pongWait))
	})
	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := t.conn.ReadMessage(); err != nil {
			return
		}
	}
}
