package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/mocket/pkg/group"
	"github.com/getmockd/mocket/pkg/httpmock"
	"github.com/getmockd/mocket/pkg/logging"
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/metrics"
	"github.com/getmockd/mocket/pkg/session"
	"github.com/getmockd/mocket/pkg/setup"
	"github.com/getmockd/mocket/pkg/websocket"
)

// Errors returned by Server.
var (
	ErrAlreadyRunning = errors.New("server is already running")
	ErrNotRunning     = errors.New("server is not running")
)

// Default server settings.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds listener and transport settings.
type Config struct {
	Host string
	// Port 0 picks a free port; see Addr.
	Port          int
	WebSocketPath string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MaxMessageSize and SendQueueSize are passed to the WebSocket endpoint.
	MaxMessageSize int64
	SendQueueSize  int

	// MetricsAddr, when set, serves /metrics on a separate listener.
	MetricsAddr string
}

// DefaultConfig returns the settings used by the serve command.
func DefaultConfig() Config {
	return Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		WebSocketPath: websocket.DefaultPath,
		ReadTimeout:   DefaultReadTimeout,
	}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithObserver adds an exchange observer. Observers run in the order added.
func WithObserver(o session.Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithMetrics records exchange metrics in r. Without it a registry is
// created only when Config.MetricsAddr is set.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// Server serves mock exchanges over HTTP and WebSocket.
type Server struct {
	cfg        Config
	log        *slog.Logger
	observers  session.Observers
	metrics    *metrics.Registry
	dispatcher *setup.Dispatcher
	manager    *websocket.ConnectionManager
	endpoint   *websocket.Endpoint
	http       *httpmock.Handler

	mu         sync.Mutex
	httpServer    *http.Server
	listener      net.Listener
	metricsServer *http.Server
	metricsLn     net.Listener
	startTime     time.Time
}

// New wires the transports around regs.
func New(cfg Config, regs *setup.Registries, opts ...Option) *Server {
	s := &Server{
		cfg: cfg,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil && cfg.MetricsAddr != "" {
		s.metrics = metrics.NewRegistry()
	}

	groups := group.NewState()
	s.manager = websocket.NewConnectionManager(groups, s.log)
	if s.metrics != nil {
		s.observers = append(s.observers, metrics.NewObserver(s.metrics))
		s.registerGauges(regs, groups)
	}
	s.dispatcher = setup.NewDispatcher(regs,
		setup.WithGroups(groups),
		setup.WithDeliverer(s.manager),
		setup.WithObserver(s.observers),
		setup.WithLogger(s.log),
	)
	s.endpoint = websocket.NewEndpoint(websocket.EndpointConfig{
		Path:           cfg.WebSocketPath,
		MaxMessageSize: cfg.MaxMessageSize,
		SendQueueSize:  cfg.SendQueueSize,
		Logger:         s.log,
	}, s.dispatcher, s.manager)
	s.http = httpmock.NewHandler(s.dispatcher)
	s.http.SetLogger(s.log)
	return s
}

func (s *Server) registerGauges(regs *setup.Registries, groups *group.State) {
	s.metrics.NewGaugeFunc("mocket_websocket_connections",
		"Live WebSocket connections.", func() float64 { return float64(s.manager.Count()) })
	s.metrics.NewGaugeFunc("mocket_groups",
		"Groups with at least one member.", func() float64 { return float64(len(groups.Groups())) })

	setups := s.metrics.NewGauge("mocket_setups", "Registered setups per channel.", "channel")
	for _, ch := range message.Channels {
		if g, err := setups.WithLabels(string(ch)); err == nil {
			g.Set(float64(regs.Get(ch).Len()))
		}
	}
}

// Metrics returns the metrics registry, or nil when metrics are off.
func (s *Server) Metrics() *metrics.Registry {
	return s.metrics
}

// Dispatcher returns the shared dispatcher.
func (s *Server) Dispatcher() *setup.Dispatcher {
	return s.dispatcher
}

// Connections returns the WebSocket connection manager.
func (s *Server) Connections() *websocket.ConnectionManager {
	return s.manager
}

// Handler returns the combined HTTP handler.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveHTTP)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == s.endpoint.Path() && websocket.IsWebSocketRequest(r) {
		s.endpoint.ServeHTTP(w, r)
		return
	}
	s.http.ServeHTTP(w, r)
}

// Start listens and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return ErrAlreadyRunning
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
	}
	if s.cfg.MetricsAddr != "" {
		mln, err := lc.Listen(ctx, "tcp", s.cfg.MetricsAddr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listening on %s: %w", s.cfg.MetricsAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", s.metrics.Handler())
		s.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: DefaultReadTimeout}
		s.metricsLn = mln
		go s.serve(s.metricsServer, mln, "metrics")
		s.log.Info("metrics enabled", "addr", mln.Addr().String())
	}

	s.httpServer = srv
	s.listener = ln
	s.startTime = time.Now()
	go s.serve(srv, ln, "HTTP")

	s.log.Info("server started", "addr", ln.Addr().String(), "websocketPath", s.endpoint.Path())
	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener, name string) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error(name+" server error", "error", err)
	}
}

// MetricsAddr returns the metrics listening address, or "" when metrics are
// not served.
func (s *Server) MetricsAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metricsLn == nil {
		return ""
	}
	return s.metricsLn.Addr().String()
}

// Addr returns the listening address, or "" when not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpServer != nil
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer == nil {
		return 0
	}
	return time.Since(s.startTime)
}

// Stop closes every WebSocket connection and shuts the listener down,
// waiting for in-flight HTTP exchanges until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return ErrNotRunning
	}

	s.manager.CloseAll("server shutting down")
	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	s.httpServer, s.listener = nil, nil
	s.metricsServer, s.metricsLn = nil, nil
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.log.Info("server stopped")
	return nil
}
