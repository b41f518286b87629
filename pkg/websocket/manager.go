package websocket

import (
	"log/slog"
	"slices"
	"sync"

	ws "github.com/gorilla/websocket"

	"github.com/getmockd/mocket/pkg/group"
	"github.com/getmockd/mocket/pkg/logging"
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/resolve"
)

// ConnectionManager maps connection ids to live transport connections and
// keeps the shared group state in step with them.
type ConnectionManager struct {
	connections map[group.ConnID]*Connection
	groups      *group.State
	log         *slog.Logger

	mu sync.RWMutex
}

var _ resolve.Deliverer = (*ConnectionManager)(nil)

// NewConnectionManager creates a new ConnectionManager over groups.
func NewConnectionManager(groups *group.State, log *slog.Logger) *ConnectionManager {
	if groups == nil {
		groups = group.NewState()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &ConnectionManager{
		connections: make(map[group.ConnID]*Connection),
		groups:      groups,
		log:         log,
	}
}

// Groups returns the group state.
func (m *ConnectionManager) Groups() *group.State {
	return m.groups
}

// Add registers a new connection.
func (m *ConnectionManager) Add(conn *Connection) {
	m.mu.Lock()
	m.connections[conn.ID()] = conn
	m.mu.Unlock()

	m.groups.Register(conn.ID())
	m.log.Debug("websocket connected", "conn", conn.ID(), "remoteAddr", conn.RemoteAddr())
}

// Remove unregisters a connection. It leaves every group before the
// connection is forgotten, so no broadcast snapshot taken afterwards includes
// it.
func (m *ConnectionManager) Remove(id group.ConnID) {
	m.groups.Unregister(id)

	m.mu.Lock()
	conn, ok := m.connections[id]
	delete(m.connections, id)
	m.mu.Unlock()

	if ok {
		m.log.Debug("websocket disconnected",
			"conn", id,
			"sent", conn.MessagesSent(),
			"received", conn.MessagesReceived(),
		)
	}
}

// Get returns a connection by ID.
func (m *ConnectionManager) Get(id group.ConnID) *Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[id]
}

// ListAll returns all connection IDs, sorted.
func (m *ConnectionManager) ListAll() []group.ConnID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]group.ConnID, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Count returns the number of active connections.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Deliver implements resolve.Deliverer.
func (m *ConnectionManager) Deliver(id group.ConnID, c message.Content) error {
	conn := m.Get(id)
	if conn == nil {
		return ErrConnectionNotFound
	}
	return conn.Enqueue(c)
}

// CloseAll closes every connection with a going-away status.
func (m *ConnectionManager) CloseAll(reason string) {
	m.mu.RLock()
	conns := make([]*Connection, 0, len(m.connections))
	for _, c := range m.connections {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	for _, c := range conns {
		c.Close(ws.CloseGoingAway, reason)
	}
}
