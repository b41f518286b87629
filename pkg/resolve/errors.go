package resolve

import "errors"

// Common errors for the resolve package.
var (
	// ErrNoConnection indicates a group resolver ran outside a WebSocket exchange.
	ErrNoConnection = errors.New("no websocket connection for exchange")
	// ErrNoGroupState indicates the environment lacks group state.
	ErrNoGroupState = errors.New("group state not configured")
	// ErrNoHandler indicates a delegate without a handler.
	ErrNoHandler = errors.New("delegate has no handler")
	// ErrUnknownResolver indicates a resolver variant the runner does not know.
	ErrUnknownResolver = errors.New("unknown resolver")
)
