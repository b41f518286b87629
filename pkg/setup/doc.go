// Package setup registers match rules and dispatches inbound messages to them.
//
// A Setup pairs an optional predicate with a resolver. Setups live in one
// Registry per channel (http, ws-message, ws-ping, ws-connect) and are numbered
// in registration order.
//
// Dispatch picks a setup in three steps:
//
//  1. Setups with a predicate are tried newest first; the first match wins.
//  2. Otherwise the newest catch-all setup (no predicate) wins.
//  3. Otherwise the channel default applies: 404 for HTTP, no reply for
//     WebSocket messages, a pong echoing the ping payload for pings, and
//     nothing on connect.
//
// Registries are filled through a Builder. Build freezes the builder; the
// resulting Registries are read-only and safe for concurrent dispatch without
// locks.
package setup
