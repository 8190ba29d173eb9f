package realtime

import (
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

const (
	sendQueueSize = 64
	writeTimeout  = 10 * time.Second
)

// Client is one authenticated socket. rooms is guarded by the hub mutex.
type Client struct {
	userID string
	send   chan []byte
	done   chan struct{}
	rooms  map[string]struct{}

	conn      net.Conn
	closeOnce sync.Once
}

func newClient(userID string, conn net.Conn) *Client {
	return &Client{
		userID: userID,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
		rooms:  make(map[string]struct{}),
		conn:   conn,
	}
}

// enqueue never blocks; it reports false when the queue is full or the
// client is already closed.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpText, payload); err != nil {
				return
			}
		}
	}
}
