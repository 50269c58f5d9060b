package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	readWait   = 60 * time.Second
)

// Client is one WebSocket connection for an authenticated user. A user may
// hold several clients at once (multiple tabs or devices).
type Client struct {
	ID     string
	UserID string

	conn   *websocket.Conn
	send   chan []byte
	topics map[string]struct{}

	mu sync.Mutex // guards conn writes
}

func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, 256),
		topics: make(map[string]struct{}),
	}
}

// track and untrack are called by the hub under its own lock.
func (c *Client) track(topic string)   { c.topics[topic] = struct{}{} }
func (c *Client) untrack(topic string) { delete(c.topics, topic) }

// Enqueue hands a frame to the write loop without blocking. Frames are
// dropped when the buffer is full; the next snapshot supersedes them anyway.
func (c *Client) Enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

// WriteLoop drains the send buffer and keeps the connection alive with pings.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case payload, ok := <-c.send:
			if !ok {
				c.close()
				return
			}
			c.mu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.TextMessage, payload)
			c.mu.Unlock()
			if err != nil {
				return
			}
		case <-ticker.C:
			c.mu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	_ = c.conn.Close()
	c.mu.Unlock()
}
