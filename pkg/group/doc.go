// Package group tracks live WebSocket connections and their group memberships.
//
// State is the only mutable structure shared between concurrent exchanges.
// Every operation takes the same mutex, so a snapshot returned by MembersOf or
// AllLive never contains a connection that had already been unregistered when
// the snapshot was taken, and Unregister removes a connection from all of its
// groups in one step.
//
// Groups are created implicitly by the first Join and disappear when their
// last member leaves or disconnects.
package group
