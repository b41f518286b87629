// Package message defines the values exchanged between the transports and the
// dispatch engine.
//
// Inbound traffic is a Message: either an HTTP *Request or a WebSocket *Frame
// (text, binary, ping, or the synthetic connect event raised after a
// handshake). Messages are immutable once received.
//
// Outbound traffic is Content: a body (text or binary), HTTP metadata
// (status, headers, cookies) and, for pings, a pong payload. Content tracks
// whether a body or pong was actually produced, so "empty body" and "no reply"
// stay distinguishable.
package message
