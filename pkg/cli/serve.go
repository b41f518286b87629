package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mocket/pkg/logging"
	"github.com/getmockd/mocket/pkg/server"
	"github.com/getmockd/mocket/pkg/websocket"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 10 * time.Second

// serveFlags holds all parsed command-line flags for the serve command.
type serveFlags struct {
	host    string
	port    int
	configs []string
	wsPath  string

	maxMessageSize int64
	sendQueueSize  int
	metricsAddr    string

	logLevel     string
	logFormat    string
	logJSONFile  string
	logExchanges bool
	logFile      string
	logCharset   string
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server (foreground)",
		Long: `Start the mock server with the setups compiled from the given mock files.

HTTP and WebSocket share one listener. Upgrade requests on the WebSocket path
are WebSocket connections; everything else is answered as HTTP. Requests that
match no setup get 404.`,
		Example: `  # Serve every mock file under mocks/
  mocket serve --config 'mocks/**/*.yaml'

  # Custom port, WebSocket path and an exchange log in latin-1
  mocket serve -c chat.yaml -p 3000 --ws-path /chat --log-file exchanges.log --log-charset iso-8859-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.host, "host", server.DefaultHost, "Interface to listen on")
	flags.IntVarP(&f.port, "port", "p", server.DefaultPort, "Port to listen on (0 picks a free port)")
	flags.StringArrayVarP(&f.configs, "config", "c", nil, "Mock file or glob (repeatable)")
	flags.StringVar(&f.wsPath, "ws-path", "", "WebSocket upgrade path (default from mock files, else "+websocket.DefaultPath+")")
	flags.Int64Var(&f.maxMessageSize, "max-message-size", websocket.DefaultMaxMessageSize, "Largest inbound WebSocket frame in bytes")
	flags.IntVar(&f.sendQueueSize, "send-queue", websocket.DefaultSendQueueSize, "Outbound frames queued per WebSocket connection")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics at /metrics on this address (e.g. :9090)")
	flags.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
	flags.StringVar(&f.logJSONFile, "log-json-file", "", "Also append operational logs as JSON to this file")
	flags.BoolVar(&f.logExchanges, "log-exchanges", false, "Print every exchange to stdout")
	flags.StringVar(&f.logFile, "log-file", "", "Append every exchange to this file")
	flags.StringVar(&f.logCharset, "log-charset", "", "Character encoding of --log-file (e.g. iso-8859-1, windows-1252)")
	return cmd
}

func runServe(ctx context.Context, stdout, stderr io.Writer, f *serveFlags) error {
	level, err := logging.LookupLevel(f.logLevel)
	if err != nil {
		return err
	}
	logCfg := logging.Config{
		Level:  level,
		Format: logging.ParseFormat(f.logFormat),
		Output: stderr,
	}
	if f.logJSONFile != "" {
		file, err := os.OpenFile(f.logJSONFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer file.Close()
		logCfg.Also = append(logCfg.Also, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	}
	log := logging.New(logCfg)

	loaded, err := loadSetups(f.configs)
	if err != nil {
		return err
	}
	log.Info("setups loaded", "files", len(loaded.Sources), "setups", loaded.Result.Setups)

	exchanges, err := exchangeObserver(f, stdout, log)
	if err != nil {
		return err
	}
	opts := []server.Option{server.WithLogger(log)}
	if exchanges != nil {
		defer func() {
			if err := exchanges.Close(); err != nil {
				log.Warn("failed to close exchange log", "error", err)
			}
		}()
		opts = append(opts, server.WithObserver(exchanges))
	}

	s := server.New(serverConfig(f, loaded), loaded.Registries, opts...)
	if err := s.Start(ctx); err != nil {
		return err
	}

	addr := s.Addr()
	fmt.Fprintf(stdout, "mocket listening on http://%s (websocket ws://%s%s)\n", addr, addr, serverConfig(f, loaded).WebSocketPath)

	<-ctx.Done()
	fmt.Fprintln(stdout, "\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil && !errors.Is(err, server.ErrNotRunning) {
		return err
	}
	return nil
}

// serverConfig merges flags over the mock files' settings.
func serverConfig(f *serveFlags, loaded *loadedSetups) server.Config {
	cfg := server.DefaultConfig()
	cfg.Host = f.host
	cfg.Port = f.port
	cfg.MaxMessageSize = f.maxMessageSize
	cfg.SendQueueSize = f.sendQueueSize
	cfg.MetricsAddr = f.metricsAddr
	switch {
	case f.wsPath != "":
		cfg.WebSocketPath = f.wsPath
	case loaded.Result.WebSocketPath != "":
		cfg.WebSocketPath = loaded.Result.WebSocketPath
	}
	return cfg
}

// exchangeObserver builds the exchange log from the flags. It returns nil
// when exchange logging is off.
func exchangeObserver(f *serveFlags, stdout io.Writer, log *slog.Logger) (*logging.ExchangeObserver, error) {
	var (
		obs *logging.ExchangeObserver
		err error
	)
	switch {
	case f.logFile != "" && f.logCharset != "":
		obs, err = logging.NewFileObserverWithCharset(f.logFile, f.logCharset)
	case f.logFile != "":
		obs, err = logging.NewFileObserver(f.logFile)
	case f.logCharset != "":
		return nil, fmt.Errorf("--log-charset requires --log-file")
	case f.logExchanges:
		obs = logging.NewStreamObserver(stdout)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	obs.SetLogger(log)
	return obs, nil
}
