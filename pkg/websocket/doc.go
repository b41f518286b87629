// Package websocket is the WebSocket transport of the mock server.
//
// An Endpoint upgrades HTTP requests on its path, registers each connection
// with the ConnectionManager (and so with the shared group state), runs the
// connect handler once, and then dispatches every text or binary frame on the
// ws-message channel and every ping on the ws-ping channel.
//
// Each Connection owns a single writer goroutine fed by a bounded queue.
// Direct replies and broadcast deliveries both go through that queue, so a
// slow or dead peer never blocks the exchange that produced the content: a
// full queue or a closed connection drops the delivery and logs it at debug
// level. Pongs are control frames and are written immediately.
//
// Usage:
//
//	groups := group.NewState()
//	manager := websocket.NewConnectionManager(groups, logger)
//	dispatcher := setup.NewDispatcher(regs,
//		setup.WithGroups(groups),
//		setup.WithDeliverer(manager),
//	)
//	endpoint := websocket.NewEndpoint(websocket.EndpointConfig{Path: "/ws"}, dispatcher, manager)
//	mux.Handle("/ws", endpoint)
//
// The server side uses github.com/gorilla/websocket, which exposes ping
// payloads and lets the pong payload be chosen per ping.
package websocket
