// Package server runs the HTTP and WebSocket transports on one listener.
//
// Upgrade requests on the WebSocket path go to the WebSocket endpoint; every
// other request, including plain requests on that path, is an HTTP exchange.
// Both transports share one dispatcher and therefore one group state.
package server
