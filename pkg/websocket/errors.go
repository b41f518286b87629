package websocket

import "errors"

// Common errors for the websocket package.
var (
	// ErrConnectionClosed indicates the connection is closed.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrConnectionNotFound indicates the connection was not found.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrSendQueueFull indicates the connection's send queue is full.
	ErrSendQueueFull = errors.New("send queue full")
	// ErrNoContent indicates a delivery without a body.
	ErrNoContent = errors.New("content has no body")
)
