package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/getmockd/mocket/internal/id"
	"github.com/getmockd/mocket/pkg/group"
	"github.com/getmockd/mocket/pkg/message"
)

// Connection represents an active WebSocket connection.
type Connection struct {
	id           group.ConnID
	conn         *ws.Conn
	remoteAddr   string
	connectedAt  time.Time
	writeTimeout time.Duration
	messagesSent atomic.Int64
	messagesRecv atomic.Int64

	send      chan message.Content
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    atomic.Bool
	log       *slog.Logger
}

func newConnection(wsConn *ws.Conn, r *http.Request, queueSize int, writeTimeout time.Duration, log *slog.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           group.ConnID(id.Connection()),
		conn:         wsConn,
		connectedAt:  time.Now(),
		writeTimeout: writeTimeout,
		send:         make(chan message.Content, queueSize),
		ctx:          ctx,
		cancel:       cancel,
	}
	if r != nil {
		c.remoteAddr = r.RemoteAddr
	}
	c.log = log.With("conn", c.id)
	return c
}

// ID returns the unique connection ID.
func (c *Connection) ID() group.ConnID {
	return c.id
}

// RemoteAddr returns the peer address.
func (c *Connection) RemoteAddr() string {
	return c.remoteAddr
}

// ConnectedAt returns the connection establishment time.
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// MessagesSent returns the number of data frames written.
func (c *Connection) MessagesSent() int64 {
	return c.messagesSent.Load()
}

// MessagesReceived returns the number of data frames read.
func (c *Connection) MessagesReceived() int64 {
	return c.messagesRecv.Load()
}

// Context is cancelled when the connection closes.
func (c *Connection) Context() context.Context {
	return c.ctx
}

// IsClosed returns whether the connection is closed.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// Enqueue queues content for the writer goroutine without blocking.
func (c *Connection) Enqueue(content message.Content) error {
	if !content.HasBody() {
		return ErrNoContent
	}
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	select {
	case c.send <- content:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrSendQueueFull
	}
}

// writePump is the only goroutine that writes data frames to the socket.
func (c *Connection) writePump() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case content := <-c.send:
			msgType := ws.TextMessage
			if content.Binary {
				msgType = ws.BinaryMessage
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(msgType, content.Body); err != nil {
				c.log.Debug("write failed", "error", err)
				c.Close(ws.CloseAbnormalClosure, "")
				return
			}
			c.messagesSent.Add(1)
		}
	}
}

// writePong answers a ping. Control frames may be written concurrently with
// the writer goroutine.
func (c *Connection) writePong(data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	err := c.conn.WriteControl(ws.PongMessage, data, time.Now().Add(c.writeTimeout))
	if err == ws.ErrCloseSent {
		return nil
	}
	return err
}

// Close sends a close frame and releases the socket. It is safe to call more
// than once.
func (c *Connection) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		if code != ws.CloseAbnormalClosure {
			msg := ws.FormatCloseMessage(code, reason)
			_ = c.conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(c.writeTimeout))
		}
		_ = c.conn.Close()
	})
}
