package resolve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getmockd/mocket/pkg/message"
)

// Resolver produces content or side effects for a matched exchange.
type Resolver interface {
	isResolver()
}

// ContentOrder decides which body wins when a sequence produces several.
type ContentOrder int

const (
	// LastWins keeps the last body produced.
	LastWins ContentOrder = iota
	// FirstWins keeps the first body produced.
	FirstWins
)

// String returns the string representation of the order.
func (o ContentOrder) String() string {
	if o == FirstWins {
		return "first-wins"
	}
	return "last-wins"
}

// Literal sets the body.
type Literal struct {
	Payload message.Payload
}

// Sequence runs resolvers in order.
type Sequence struct {
	Resolvers []Resolver
	Order     ContentOrder
}

// JoinGroup adds the current connection to Group.
type JoinGroup struct {
	Group string
}

// Broadcast sends Payload to every member of Group, or to every live
// connection when Group is empty.
type Broadcast struct {
	Payload message.Payload
	Group   string
}

// Pong sets the payload of the pong sent in reply to a ping.
type Pong struct {
	Data []byte
}

// Delegate asks Handler for the body.
type Delegate struct {
	Handler Handler
}

// Status sets the HTTP status code.
type Status struct {
	Code int
}

// Header appends an HTTP response header.
type Header struct {
	Name  string
	Value string
}

// Cookie appends an HTTP response cookie shaped by Attributes.
type Cookie struct {
	Name       string
	Value      string
	Attributes []CookieAttribute
}

func (Literal) isResolver()   {}
func (Sequence) isResolver()  {}
func (JoinGroup) isResolver() {}
func (Broadcast) isResolver() {}
func (Pong) isResolver()      {}
func (Delegate) isResolver()  {}
func (Status) isResolver()    {}
func (Header) isResolver()    {}
func (Cookie) isResolver()    {}

// Handler produces a body for a message on behalf of a Delegate.
type Handler interface {
	Handle(ctx context.Context, msg message.Message) (message.Payload, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg message.Message) (message.Payload, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, msg message.Message) (message.Payload, error) {
	return f(ctx, msg)
}

// Seq returns a last-wins sequence of rs.
func Seq(rs ...Resolver) Sequence {
	return Sequence{Resolvers: rs}
}

// Text returns a Literal text body.
func Text(s string) Literal {
	return Literal{Payload: message.Text(s)}
}

// Bytes returns a Literal binary body.
func Bytes(b []byte) Literal {
	return Literal{Payload: message.Binary(b)}
}

// JSON returns a Literal text body holding the JSON encoding of v.
func JSON(v any) (Literal, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Literal{}, fmt.Errorf("encode json body: %w", err)
	}
	return Literal{Payload: message.Payload{Data: data}}, nil
}
