package websocket

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/getmockd/mocket/pkg/logging"
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/session"
	"github.com/getmockd/mocket/pkg/setup"
)

// Defaults for EndpointConfig.
const (
	DefaultPath           = "/ws"
	DefaultMaxMessageSize = 65536
	DefaultSendQueueSize  = 64
	DefaultWriteTimeout   = 10 * time.Second
)

// EndpointConfig configures a WebSocket endpoint.
type EndpointConfig struct {
	// Path is the URL path for WebSocket upgrade (e.g., "/ws").
	Path string
	// MaxMessageSize is the maximum inbound frame size in bytes.
	MaxMessageSize int64
	// SendQueueSize bounds the per-connection outbound queue.
	SendQueueSize int
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// Logger receives operational logs.
	Logger *slog.Logger
}

func (c *EndpointConfig) applyDefaults() {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = DefaultSendQueueSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.Logger == nil {
		c.Logger = logging.Nop()
	}
}

// Endpoint accepts WebSocket connections and dispatches their traffic.
type Endpoint struct {
	cfg        EndpointConfig
	upgrader   ws.Upgrader
	dispatcher *setup.Dispatcher
	manager    *ConnectionManager
	log        *slog.Logger
}

// NewEndpoint creates an endpoint. The manager must share its group state
// with the dispatcher.
func NewEndpoint(cfg EndpointConfig, d *setup.Dispatcher, m *ConnectionManager) *Endpoint {
	cfg.applyDefaults()
	return &Endpoint{
		cfg: cfg,
		upgrader: ws.Upgrader{
			// Any origin may connect to a mock.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		dispatcher: d,
		manager:    m,
		log:        cfg.Logger,
	}
}

// Path returns the upgrade path.
func (e *Endpoint) Path() string {
	return e.cfg.Path
}

// Manager returns the connection manager.
func (e *Endpoint) Manager() *ConnectionManager {
	return e.manager
}

// ServeHTTP implements http.Handler.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !IsWebSocketRequest(r) {
		http.Error(w, "WebSocket upgrade required", http.StatusBadRequest)
		return
	}
	if err := e.HandleUpgrade(w, r); err != nil {
		e.log.Debug("websocket upgrade failed", "error", err, "remoteAddr", r.RemoteAddr)
	}
}

// HandleUpgrade upgrades the request and starts serving the connection.
func (e *Endpoint) HandleUpgrade(w http.ResponseWriter, r *http.Request) error {
	wsConn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an HTTP error.
		return err
	}
	wsConn.SetReadLimit(e.cfg.MaxMessageSize)

	conn := newConnection(wsConn, r, e.cfg.SendQueueSize, e.cfg.WriteTimeout, e.log)
	e.manager.Add(conn)

	go conn.writePump()
	go e.handleConnection(conn)
	return nil
}

// handleConnection handles the lifecycle of a WebSocket connection.
func (e *Endpoint) handleConnection(conn *Connection) {
	closeCode := ws.CloseNormalClosure
	defer func() {
		e.manager.Remove(conn.ID())
		conn.Close(closeCode, "")
	}()

	// The connect handler runs before any frame is read.
	e.reply(conn, e.dispatcher.Connect(conn.Context(), conn.ID()))

	conn.conn.SetPingHandler(func(appData string) error {
		sc := e.dispatcher.Dispatch(conn.Context(), message.ChannelWSPing, message.PingFrame([]byte(appData)), conn.ID())
		if sc.Failed() || sc.Content == nil || !sc.Content.HasPong() {
			return nil
		}
		if err := conn.writePong(sc.Content.Pong); err != nil {
			conn.log.Debug("pong dropped", "error", err)
		}
		return nil
	})

	for {
		msgType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, ws.ErrReadLimit) {
				closeCode = ws.CloseMessageTooBig
			} else if !ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway, ws.CloseNoStatusReceived) {
				conn.log.Debug("read failed", "error", err)
			}
			return
		}
		conn.messagesRecv.Add(1)

		var frame *message.Frame
		switch msgType {
		case ws.TextMessage:
			frame = message.TextFrame(string(data))
		case ws.BinaryMessage:
			frame = message.BinaryFrame(data)
		default:
			continue
		}
		e.reply(conn, e.dispatcher.Dispatch(conn.Context(), message.ChannelWSMessage, frame, conn.ID()))
	}
}

// reply queues the direct reply of an exchange, if any. Failed exchanges
// send nothing.
func (e *Endpoint) reply(conn *Connection, sc *session.Context) {
	if sc.Failed() || sc.Content == nil || !sc.Content.HasBody() {
		return
	}
	if err := conn.Enqueue(*sc.Content); err != nil {
		conn.log.Debug("reply dropped", "error", err, "setup", sc.SetupID)
	}
}

// IsWebSocketRequest returns true if the request is a WebSocket upgrade request.
func IsWebSocketRequest(r *http.Request) bool {
	if !strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") {
		return false
	}
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
