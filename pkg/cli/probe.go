package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
)

type probeFlags struct {
	send    []string
	binary  bool
	read    int
	timeout time.Duration
}

func newProbeCmd() *cobra.Command {
	f := &probeFlags{}

	cmd := &cobra.Command{
		Use:   "probe <ws-url>",
		Short: "Connect to a WebSocket endpoint, send frames and print replies",
		Long: `Connect to a WebSocket endpoint, send each --send frame in order and print
the frames received. By default probe reads one frame per frame sent; use
--read to wait for a different number (for example a connect greeting plus
replies).`,
		Example: `  mocket probe ws://localhost:8080/ws --send join --send '{"event":"say"}'
  mocket probe ws://localhost:8080/ws --read 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
			defer cancel()
			return runProbe(ctx, cmd.OutOrStdout(), args[0], f)
		},
	}

	cmd.Flags().StringArrayVarP(&f.send, "send", "s", nil, "Frame to send (repeatable)")
	cmd.Flags().BoolVar(&f.binary, "binary", false, "Send frames as binary (payloads are hex)")
	cmd.Flags().IntVarP(&f.read, "read", "r", -1, "Frames to read (default: one per frame sent)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Second, "Overall time limit")
	return cmd
}

func runProbe(ctx context.Context, w io.Writer, url string, f *probeFlags) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.CloseNow()

	msgType := websocket.MessageText
	if f.binary {
		msgType = websocket.MessageBinary
	}
	for _, s := range f.send {
		data := []byte(s)
		if f.binary {
			if data, err = hex.DecodeString(s); err != nil {
				return fmt.Errorf("binary frame %q: %w", s, err)
			}
		}
		if err := conn.Write(ctx, msgType, data); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		fmt.Fprintf(w, "> %s\n", s)
	}

	want := f.read
	if want < 0 {
		want = len(f.send)
	}
	for range want {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("timed out waiting for a frame")
			}
			return fmt.Errorf("read: %w", err)
		}
		if typ == websocket.MessageBinary {
			fmt.Fprintf(w, "< (%d bytes) %s\n", len(data), hex.EncodeToString(data))
			continue
		}
		fmt.Fprintf(w, "< %s\n", data)
	}

	return conn.Close(websocket.StatusNormalClosure, "")
}
