package session

import (
	"fmt"
	"time"

	"github.com/getmockd/mocket/pkg/group"
	"github.com/getmockd/mocket/pkg/message"
)

// FailureKind classifies a failed exchange.
type FailureKind string

// Failure kinds.
const (
	// FailureResolver means a resolver, typically a delegate, failed while
	// producing content.
	FailureResolver FailureKind = "ResolverFailure"
)

// Failure records why an exchange failed.
type Failure struct {
	Kind      FailureKind
	Message   string
	ErrorType string
	Err       error
}

// Error implements error. The text names the original error's type and
// includes its message.
func (f *Failure) Error() string {
	if f.ErrorType == "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s (%s): %s", f.Kind, f.ErrorType, f.Message)
}

// Unwrap returns the original error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Context describes one exchange.
type Context struct {
	ID           string
	Channel      message.Channel
	Message      message.Message
	ConnectionID group.ConnID
	SetupID      string
	Content      *message.Content
	Failure      *Failure
	StartedAt    time.Time
	Duration     time.Duration
}

// New returns a Context for msg on channel ch.
func New(id string, ch message.Channel, msg message.Message, conn group.ConnID) *Context {
	return &Context{
		ID:           id,
		Channel:      ch,
		Message:      msg,
		ConnectionID: conn,
		StartedAt:    time.Now(),
	}
}

// Matched reports whether a registered setup handled the exchange.
func (c *Context) Matched() bool {
	return c.SetupID != ""
}

// Failed reports whether the exchange failed.
func (c *Context) Failed() bool {
	return c.Failure != nil
}

// Fail records a failure. The first failure wins; later calls are ignored.
func (c *Context) Fail(kind FailureKind, err error) {
	if c.Failure != nil || err == nil {
		return
	}
	c.Failure = &Failure{
		Kind:      kind,
		Message:   err.Error(),
		ErrorType: fmt.Sprintf("%T", err),
		Err:       err,
	}
	c.Content = nil
}

// Clone returns a copy of c whose content and failure are not shared with c.
// The inbound message is shared.
func (c *Context) Clone() *Context {
	cp := *c
	if c.Content != nil {
		content := c.Content.Clone()
		cp.Content = &content
	}
	if c.Failure != nil {
		f := *c.Failure
		cp.Failure = &f
	}
	return &cp
}

// EnsureContent returns the content, allocating it on first use.
func (c *Context) EnsureContent() *message.Content {
	if c.Content == nil {
		c.Content = &message.Content{}
	}
	return c.Content
}

// Finish stamps the exchange duration.
func (c *Context) Finish() {
	c.Duration = time.Since(c.StartedAt)
}
