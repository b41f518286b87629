package message

import (
	"fmt"
	"net/http"
	"net/url"
)

// Kind identifies the shape of an inbound message.
type Kind int

const (
	// KindRequest is an HTTP request.
	KindRequest Kind = iota + 1
	// KindText is a WebSocket text frame.
	KindText
	// KindBinary is a WebSocket binary frame.
	KindBinary
	// KindPing is a WebSocket ping control frame.
	KindPing
	// KindConnect is raised once per WebSocket connection after the handshake.
	KindConnect
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindPing:
		return "ping"
	case KindConnect:
		return "connect"
	default:
		return "unknown"
	}
}

// Message is an inbound unit of protocol traffic.
type Message interface {
	Kind() Kind
}

// Channel names the registry a message is dispatched against.
type Channel string

// Dispatch channels.
const (
	ChannelHTTP      Channel = "http"
	ChannelWSMessage Channel = "ws-message"
	ChannelWSPing    Channel = "ws-ping"
	ChannelWSConnect Channel = "ws-connect"
)

// Channels lists every channel in dispatch-table order.
var Channels = []Channel{ChannelHTTP, ChannelWSMessage, ChannelWSPing, ChannelWSConnect}

// IsWebSocket reports whether the channel belongs to the WebSocket protocol.
func (c Channel) IsWebSocket() bool {
	return c == ChannelWSMessage || c == ChannelWSPing || c == ChannelWSConnect
}

// ChannelOf returns the channel a message kind is dispatched on.
func ChannelOf(k Kind) Channel {
	switch k {
	case KindRequest:
		return ChannelHTTP
	case KindPing:
		return ChannelWSPing
	case KindConnect:
		return ChannelWSConnect
	default:
		return ChannelWSMessage
	}
}

// Version is an HTTP protocol version.
type Version struct {
	Major int
	Minor int
}

// Well-known HTTP versions.
var (
	HTTP10 = Version{Major: 1, Minor: 0}
	HTTP11 = Version{Major: 1, Minor: 1}
	HTTP20 = Version{Major: 2, Minor: 0}
)

// String returns the canonical wire form, e.g. "HTTP/1.0".
func (v Version) String() string {
	return fmt.Sprintf("HTTP/%d.%d", v.Major, v.Minor)
}

// Request is a decoded HTTP request.
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Header     http.Header
	Body       []byte
	Version    Version
	RemoteAddr string
}

// Kind implements Message.
func (r *Request) Kind() Kind { return KindRequest }

// URI returns the request path with its query string, if any.
func (r *Request) URI() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// Cookie returns the named request cookie.
func (r *Request) Cookie(name string) (*http.Cookie, bool) {
	hr := http.Request{Header: r.Header}
	c, err := hr.Cookie(name)
	if err != nil {
		return nil, false
	}
	return c, true
}

// FromHTTP builds a Request from a net/http request whose body was already read.
func FromHTTP(r *http.Request, body []byte) *Request {
	return &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		Header:     r.Header.Clone(),
		Body:       body,
		Version:    Version{Major: r.ProtoMajor, Minor: r.ProtoMinor},
		RemoteAddr: r.RemoteAddr,
	}
}

// Frame is a decoded WebSocket frame or connection event.
type Frame struct {
	Type    Kind
	Payload []byte
}

// Kind implements Message.
func (f *Frame) Kind() Kind { return f.Type }

// TextFrame returns a text frame.
func TextFrame(s string) *Frame {
	return &Frame{Type: KindText, Payload: []byte(s)}
}

// BinaryFrame returns a binary frame.
func BinaryFrame(b []byte) *Frame {
	return &Frame{Type: KindBinary, Payload: b}
}

// PingFrame returns a ping control frame.
func PingFrame(b []byte) *Frame {
	return &Frame{Type: KindPing, Payload: b}
}

// ConnectFrame returns the connection-established event.
func ConnectFrame() *Frame {
	return &Frame{Type: KindConnect}
}
