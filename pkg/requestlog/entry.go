package requestlog

import "time"

// Protocol constants for request logging.
const (
	ProtocolHTTP      = "http"
	ProtocolWebSocket = "websocket"
)

// MaxBodySize is the largest body kept in an entry; longer bodies are truncated.
const MaxBodySize = 10 << 10

// Entry captures one exchange.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// SessionID is the dispatcher's exchange id.
	SessionID string `json:"sessionId,omitempty"`

	// Timestamp is when the exchange started.
	Timestamp time.Time `json:"timestamp"`

	// Protocol is http or websocket.
	Protocol string `json:"protocol"`

	// Channel is the dispatch channel (http, ws-message, ws-ping, ws-connect).
	Channel string `json:"channel"`

	// Method is the HTTP method.
	Method string `json:"method,omitempty"`

	// Path is the request URL path.
	Path string `json:"path,omitempty"`

	// QueryString is the encoded query string.
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request body or frame payload (truncated to MaxBodySize).
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr,omitempty"`

	// MatchedSetupID is the id of the setup that answered (empty if none).
	MatchedSetupID string `json:"matchedSetupId,omitempty"`

	// ResponseStatus is the HTTP status written.
	ResponseStatus int `json:"responseStatus,omitempty"`

	// ResponseBody is the reply body (truncated to MaxBodySize).
	ResponseBody string `json:"responseBody,omitempty"`

	// DurationMs is the processing time in milliseconds.
	DurationMs int `json:"durationMs"`

	// FailureKind classifies a failed exchange.
	FailureKind string `json:"failureKind,omitempty"`

	// Error contains the failure message, including the original error text.
	Error string `json:"error,omitempty"`

	// ErrorType is the Go type of the original error.
	ErrorType string `json:"errorType,omitempty"`

	// WebSocket holds frame metadata for websocket exchanges.
	WebSocket *WebSocketMeta `json:"websocket,omitempty"`
}

// WebSocketMeta contains WebSocket-specific metadata.
type WebSocketMeta struct {
	// ConnectionID is the WebSocket connection identifier.
	ConnectionID string `json:"connectionId"`

	// MessageType is the frame type (text, binary, ping, connect).
	MessageType string `json:"messageType"`

	// Pong is the pong payload sent in reply to a ping.
	Pong string `json:"pong,omitempty"`
}

func truncate(b []byte) string {
	if len(b) > MaxBodySize {
		return string(b[:MaxBodySize])
	}
	return string(b)
}
