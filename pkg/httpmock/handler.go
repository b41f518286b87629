package httpmock

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/getmockd/mocket/pkg/logging"
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/session"
	"github.com/getmockd/mocket/pkg/setup"
)

// MaxRequestBodySize is the maximum request body the handler reads (10MB).
const MaxRequestBodySize = 10 << 20

// Handler serves HTTP exchanges from the setup registries.
type Handler struct {
	dispatcher *setup.Dispatcher
	log        *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(d *setup.Dispatcher) *Handler {
	return &Handler{
		dispatcher: d,
		log:        logging.Nop(),
	}
}

// SetLogger sets the operational logger.
func (h *Handler) SetLogger(log *slog.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	h.log = log
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.log.Warn("request body too large", "path", r.URL.Path, "limit", MaxRequestBodySize)
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	sc := h.dispatcher.Dispatch(r.Context(), message.ChannelHTTP, message.FromHTTP(r, body), "")
	if sc.Failed() {
		// Abort so the client sees a broken connection.
		panic(http.ErrAbortHandler)
	}
	writeContent(w, sc)
}

func writeContent(w http.ResponseWriter, sc *session.Context) {
	c := sc.Content
	if c == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	hdr := w.Header()
	for name, values := range c.Header {
		for _, v := range values {
			hdr.Add(name, v)
		}
	}
	for _, cookie := range c.Cookies {
		http.SetCookie(w, cookie)
	}
	if c.HasBody() {
		if hdr.Get("Content-Type") == "" && c.Binary {
			hdr.Set("Content-Type", "application/octet-stream")
		}
		hdr.Set("Content-Length", strconv.Itoa(len(c.Body)))
	}

	status := c.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if c.HasBody() {
		_, _ = w.Write(c.Body)
	}
}
