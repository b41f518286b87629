// Package resolve turns a matched setup into outbound content and side effects.
//
// Resolvers form a closed set of variants. Literal and Delegate produce the
// body; Pong produces the ping reply; Status, Header and Cookie set HTTP
// metadata; JoinGroup and Broadcast act on WebSocket group state. Sequence runs
// its elements in order: every control effect runs wherever it sits, while
// competing body producers are settled by the sequence's ContentOrder.
//
// A failing Delegate records a FailureResolver on the session context, drops
// any content produced so far and stops the enclosing sequence. Broadcast
// delivery failures are per recipient and never reach the exchange.
package resolve
