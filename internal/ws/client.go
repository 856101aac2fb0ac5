package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Client is one live websocket connection, tagged with the user that
// authenticated it. A user may own many clients at once (tabs, devices).
// All writes go through the buffered send channel; writePump is the only
// goroutine that touches the socket for writes, which keeps delivery FIFO
// per connection.
type Client struct {
	SocketID string
	UserID   string

	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, userID, socketID string, buffer int) *Client {
	return &Client{
		SocketID: socketID,
		UserID:   userID,
		conn:     conn,
		send:     make(chan []byte, buffer),
	}
}

// enqueue offers a payload to the connection without blocking. A full buffer
// means the consumer is too slow to keep; the caller evicts it.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close tears the connection down. Safe to call more than once. The hub only
// closes a client after removing it from the routing maps, so no enqueue can
// race the close; writePump drains whatever was already queued and then shuts
// the socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

func (c *Client) writePump(pingInterval, writeDeadline time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}

// readPump keeps read deadlines fresh and detects disconnects. The live
// channel is one-directional; inbound frames other than control messages are
// discarded.
func (c *Client) readPump(readDeadline time.Duration, maxMessageSize int64) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	}
}
