package group

import (
	"errors"
	"fmt"
)

// Common errors for the group package.
var (
	// ErrConnectionNotFound indicates the connection is not registered.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrEmptyGroupName indicates a join with an empty group name.
	ErrEmptyGroupName = errors.New("empty group name")
)

// ConflictError reports an internal invariant violation between the
// connection index and the group index. State panics with it; it is never
// returned.
type ConflictError struct {
	Conn   ConnID
	Group  string
	Detail string
}

// Error implements error.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("group state conflict: conn %s group %q: %s", e.Conn, e.Group, e.Detail)
}
