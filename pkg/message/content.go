package message

import (
	"bytes"
	"net/http"
	"slices"
)

// Payload is a body that is either text or binary.
type Payload struct {
	Data   []byte
	Binary bool
}

// Text returns a text payload.
func Text(s string) Payload {
	return Payload{Data: []byte(s)}
}

// Binary returns a binary payload.
func Binary(b []byte) Payload {
	return Payload{Data: b, Binary: true}
}

// String returns the payload data as a string.
func (p Payload) String() string {
	return string(p.Data)
}

// Content is the resolved outbound value of an exchange.
type Content struct {
	Body    []byte
	Binary  bool
	Status  int
	Header  http.Header
	Cookies []*http.Cookie
	Pong    []byte

	hasBody bool
	hasPong bool
}

// NewContent returns content carrying p as its body.
func NewContent(p Payload) Content {
	var c Content
	c.SetBody(p)
	return c
}

// SetBody replaces the body.
func (c *Content) SetBody(p Payload) {
	c.Body = p.Data
	c.Binary = p.Binary
	c.hasBody = true
}

// ClearBody removes the body.
func (c *Content) ClearBody() {
	c.Body = nil
	c.Binary = false
	c.hasBody = false
}

// BodyPayload returns the body as a Payload.
func (c Content) BodyPayload() Payload {
	return Payload{Data: c.Body, Binary: c.Binary}
}

// SetPong sets the pong control-frame payload.
func (c *Content) SetPong(data []byte) {
	c.Pong = data
	c.hasPong = true
}

// AddHeader appends a response header.
func (c *Content) AddHeader(name, value string) {
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	c.Header.Add(name, value)
}

// AddCookie appends a response cookie.
func (c *Content) AddCookie(cookie *http.Cookie) {
	c.Cookies = append(c.Cookies, cookie)
}

// Clone returns a copy of c that shares no slices, maps or cookies with it.
func (c Content) Clone() Content {
	out := c
	out.Body = bytes.Clone(c.Body)
	out.Pong = bytes.Clone(c.Pong)
	out.Header = c.Header.Clone()
	if c.Cookies != nil {
		out.Cookies = make([]*http.Cookie, len(c.Cookies))
		for i, ck := range c.Cookies {
			if ck == nil {
				continue
			}
			cp := *ck
			cp.Unparsed = slices.Clone(ck.Unparsed)
			out.Cookies[i] = &cp
		}
	}
	return out
}

// HasBody reports whether a body was produced.
func (c Content) HasBody() bool { return c.hasBody }

// HasPong reports whether a pong payload was produced.
func (c Content) HasPong() bool { return c.hasPong }

// IsZero reports whether nothing at all was produced.
func (c Content) IsZero() bool {
	return !c.hasBody && !c.hasPong && c.Status == 0 && len(c.Header) == 0 && len(c.Cookies) == 0
}
