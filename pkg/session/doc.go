// Package session carries the per-exchange record handed to observers.
//
// A Context is created by the dispatcher for every inbound message, filled in
// as the exchange is matched and resolved, and delivered to the Observer
// exactly once, whether the exchange succeeded or failed.
package session
