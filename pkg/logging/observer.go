package logging

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/session"
)

// ExchangeObserver writes one text record per exchange.
type ExchangeObserver struct {
	w      io.Writer
	closer []io.Closer
	log    *slog.Logger

	mu sync.Mutex
}

var _ session.Observer = (*ExchangeObserver)(nil)

// NewStreamObserver writes records to w. A nil w means os.Stdout.
func NewStreamObserver(w io.Writer) *ExchangeObserver {
	if w == nil {
		w = os.Stdout
	}
	return &ExchangeObserver{w: w, log: Nop()}
}

// NewFileObserver appends UTF-8 records to the file at path.
func NewFileObserver(path string) (*ExchangeObserver, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open exchange log: %w", err)
	}
	return &ExchangeObserver{w: f, closer: []io.Closer{f}, log: Nop()}, nil
}

// NewFileObserverWithCharset appends records encoded in the named character
// set (any WHATWG encoding label, e.g. "utf-8", "iso-8859-1", "shift_jis").
func NewFileObserverWithCharset(path, charset string) (*ExchangeObserver, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open exchange log: %w", err)
	}
	tw := transform.NewWriter(f, enc.NewEncoder())
	return &ExchangeObserver{w: tw, closer: []io.Closer{tw, f}, log: Nop()}, nil
}

// SetLogger sets the logger that receives write failures.
func (o *ExchangeObserver) SetLogger(log *slog.Logger) {
	if log == nil {
		log = Nop()
	}
	o.log = log
}

// Observe implements session.Observer. Write failures are logged at debug
// level and otherwise ignored.
func (o *ExchangeObserver) Observe(sc *session.Context) {
	var buf bytes.Buffer
	formatExchange(&buf, sc)

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.w.Write(buf.Bytes()); err != nil {
		o.log.Debug("exchange log write failed", "error", err, "session", sc.ID)
	}
}

// Close flushes and closes the underlying file, if any.
func (o *ExchangeObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var first error
	for _, c := range o.closer {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	o.closer = nil
	return first
}

func formatExchange(buf *bytes.Buffer, sc *session.Context) {
	setupID := sc.SetupID
	if setupID == "" {
		setupID = "-"
	}
	fmt.Fprintf(buf, "%s %s channel=%s setup=%s duration=%s\n",
		sc.StartedAt.Format(time.RFC3339Nano), sc.ID, sc.Channel, setupID, sc.Duration)

	switch m := sc.Message.(type) {
	case *message.Request:
		fmt.Fprintf(buf, "> %s %s %s\n", m.Method, m.URI(), m.Version)
		for _, name := range slices.Sorted(maps.Keys(m.Header)) {
			for _, v := range m.Header[name] {
				fmt.Fprintf(buf, "> %s: %s\n", name, v)
			}
		}
		if len(m.Body) > 0 {
			buf.WriteString(">\n")
			writeBody(buf, "> ", m.Body, false)
		}
	case *message.Frame:
		fmt.Fprintf(buf, "> [%s] conn=%s\n", m.Kind(), sc.ConnectionID)
		if len(m.Payload) > 0 {
			writeBody(buf, "> ", m.Payload, m.Type == message.KindBinary)
		}
	}

	if c := sc.Content; c != nil {
		if sc.Channel == message.ChannelHTTP {
			status := c.Status
			if status == 0 {
				status = 200
			}
			fmt.Fprintf(buf, "< %d\n", status)
			for _, name := range slices.Sorted(maps.Keys(c.Header)) {
				for _, v := range c.Header[name] {
					fmt.Fprintf(buf, "< %s: %s\n", name, v)
				}
			}
			for _, ck := range c.Cookies {
				fmt.Fprintf(buf, "< Set-Cookie: %s\n", ck.String())
			}
		}
		if c.HasBody() {
			writeBody(buf, "< ", c.Body, c.Binary)
		}
		if c.HasPong() {
			buf.WriteString("< [pong]\n")
			writeBody(buf, "< ", c.Pong, !utf8.Valid(c.Pong))
		}
	} else if !sc.Failed() {
		buf.WriteString("< (no reply)\n")
	}

	if f := sc.Failure; f != nil {
		fmt.Fprintf(buf, "! %s\n", f.Error())
	}
	buf.WriteString("\n")
}

func writeBody(buf *bytes.Buffer, prefix string, body []byte, binary bool) {
	if binary || !utf8.Valid(body) {
		fmt.Fprintf(buf, "%s(%d bytes) %s\n", prefix, len(body), hex.EncodeToString(body))
		return
	}
	for _, line := range bytes.Split(body, []byte("\n")) {
		buf.WriteString(prefix)
		buf.Write(line)
		buf.WriteByte('\n')
	}
}
