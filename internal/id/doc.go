// Package id provides identifier generation for mocket.
//
// Three formats are used:
//
//   - Connection: a random UUID (github.com/google/uuid) naming a live
//     WebSocket connection inside the group state
//   - Session: a ULID, so exchange records sort by the time they started
//   - Setup: "<channel>#<seq>", derived from a setup's registration order
//
// ULIDs are 26 characters of Crockford base32: 48 bits of millisecond
// timestamp followed by 80 bits of crypto/rand randomness. IDs generated in
// the same millisecond stay unique through a counter mixed into the random part.
package id
