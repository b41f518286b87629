package mockettest

import (
	"context"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/predicate"
	"github.com/getmockd/mocket/pkg/requestlog"
	"github.com/getmockd/mocket/pkg/resolve"
	"github.com/getmockd/mocket/pkg/server"
	"github.com/getmockd/mocket/pkg/setup"
)

// MaxExchanges bounds the exchanges kept for assertions.
const MaxExchanges = 10000

// Server is a mock server bound to a test.
type Server struct {
	t       testing.TB
	builder *setup.Builder
	cfg     server.Config
	history *requestlog.MemoryStore

	srv     *server.Server
	httpSrv *httptest.Server
}

// New creates a server for t. Call Start after registering setups.
func New(t testing.TB) *Server {
	t.Helper()
	return &Server{
		t:       t,
		builder: setup.NewBuilder(),
		cfg:     server.DefaultConfig(),
		history: requestlog.NewMemoryStore(MaxExchanges),
	}
}

// WithWebSocketPath changes the upgrade path. It must be called before
// Start.
func (s *Server) WithWebSocketPath(path string) *Server {
	s.cfg.WebSocketPath = path
	return s
}

func (s *Server) add(ch message.Channel, p predicate.Predicate, r resolve.Resolver) string {
	s.t.Helper()
	id, err := s.builder.AddSetup(ch, setup.Spec{Predicate: p, Resolver: r})
	if err != nil {
		s.t.Fatalf("mockettest: add %s setup: %v", ch, err)
	}
	return id
}

// HTTP registers an HTTP setup and returns its id. A nil predicate is a
// catch-all.
func (s *Server) HTTP(p predicate.Predicate, r resolve.Resolver) string {
	s.t.Helper()
	return s.add(message.ChannelHTTP, p, r)
}

// Message registers a WebSocket message setup.
func (s *Server) Message(p predicate.Predicate, r resolve.Resolver) string {
	s.t.Helper()
	return s.add(message.ChannelWSMessage, p, r)
}

// Ping registers a WebSocket ping setup.
func (s *Server) Ping(p predicate.Predicate, r resolve.Resolver) string {
	s.t.Helper()
	return s.add(message.ChannelWSPing, p, r)
}

// OnConnect sets the resolver run for every new WebSocket connection.
func (s *Server) OnConnect(r resolve.Resolver) string {
	s.t.Helper()
	id, err := s.builder.SetConnectHandler(r)
	if err != nil {
		s.t.Fatalf("mockettest: connect handler: %v", err)
	}
	return id
}

// Start freezes the setups, starts serving and returns the base URL.
// Calling Start again returns the same URL.
func (s *Server) Start() string {
	s.t.Helper()
	if s.httpSrv != nil {
		return s.httpSrv.URL
	}

	regs, err := s.builder.Build()
	if err != nil {
		s.t.Fatalf("mockettest: build setups: %v", err)
	}
	s.srv = server.New(s.cfg, regs, server.WithObserver(requestlog.NewObserver(s.history)))
	s.httpSrv = httptest.NewServer(s.srv.Handler())
	s.t.Cleanup(s.Stop)
	return s.httpSrv.URL
}

// Stop closes WebSocket connections and the listener. It is safe to call
// more than once.
func (s *Server) Stop() {
	if s.httpSrv == nil {
		return
	}
	s.srv.Connections().CloseAll("test finished")
	s.httpSrv.Close()
}

// URL returns the base URL, or "" before Start.
func (s *Server) URL() string {
	if s.httpSrv == nil {
		return ""
	}
	return s.httpSrv.URL
}

// WebSocketURL returns the ws:// URL of the upgrade path.
func (s *Server) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(s.URL(), "http") + s.cfg.WebSocketPath
}

// Dial opens a WebSocket connection to the server. The connection is closed
// when the test ends.
func (s *Server) Dial(ctx context.Context) *websocket.Conn {
	s.t.Helper()
	conn, _, err := websocket.Dial(ctx, s.WebSocketURL(), nil)
	if err != nil {
		s.t.Fatalf("mockettest: dial %s: %v", s.WebSocketURL(), err)
	}
	s.t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

// Exchanges returns recorded exchanges oldest first. A nil filter returns
// everything.
func (s *Server) Exchanges(filter *requestlog.Filter) []*requestlog.Entry {
	entries := s.history.List(filter)
	slices.Reverse(entries)
	return entries
}

// Requests returns the recorded HTTP exchanges oldest first.
func (s *Server) Requests() []*requestlog.Entry {
	return s.Exchanges(&requestlog.Filter{Channel: string(message.ChannelHTTP)})
}

// Reset forgets recorded exchanges.
func (s *Server) Reset() {
	s.history.Clear()
}

// AssertCalled asserts that the setup answered exactly n exchanges.
func (s *Server) AssertCalled(setupID string, n int) bool {
	s.t.Helper()
	got := len(s.history.List(&requestlog.Filter{MatchedID: setupID}))
	return assert.Equal(s.t, n, got, "exchanges answered by setup %q", setupID)
}

// AssertNotCalled asserts that the setup answered nothing.
func (s *Server) AssertNotCalled(setupID string) bool {
	s.t.Helper()
	return s.AssertCalled(setupID, 0)
}

// AssertNoFailures asserts that no exchange failed.
func (s *Server) AssertNoFailures() bool {
	s.t.Helper()
	failed := true
	for _, e := range s.history.List(&requestlog.Filter{HasError: &failed}) {
		assert.Failf(s.t, "exchange failed", "%s %s: %s: %s", e.Channel, e.MatchedSetupID, e.FailureKind, e.Error)
		return false
	}
	return true
}
