package message

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "HTTP/1.0", HTTP10.String())
	assert.Equal(t, "HTTP/1.1", HTTP11.String())
	assert.Equal(t, "HTTP/2.0", HTTP20.String())
}

func TestFromHTTP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/foo?param=actual", strings.NewReader("ignored"))
	r.Header.Set("X-Test", "yes")
	r.AddCookie(&http.Cookie{Name: "session", Value: "abc"})

	req := FromHTTP(r, []byte("0XCAFE"))

	assert.Equal(t, KindRequest, req.Kind())
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/foo", req.Path)
	assert.Equal(t, "actual", req.Query.Get("param"))
	assert.Equal(t, "/foo?param=actual", req.URI())
	assert.Equal(t, "yes", req.Header.Get("X-Test"))
	assert.Equal(t, []byte("0XCAFE"), req.Body)
	assert.Equal(t, HTTP11, req.Version)

	c, ok := req.Cookie("session")
	require.True(t, ok)
	assert.Equal(t, "abc", c.Value)

	_, ok = req.Cookie("missing")
	assert.False(t, ok)
}

func TestChannelOf(t *testing.T) {
	assert.Equal(t, ChannelHTTP, ChannelOf(KindRequest))
	assert.Equal(t, ChannelWSMessage, ChannelOf(KindText))
	assert.Equal(t, ChannelWSMessage, ChannelOf(KindBinary))
	assert.Equal(t, ChannelWSPing, ChannelOf(KindPing))
	assert.Equal(t, ChannelWSConnect, ChannelOf(KindConnect))
	assert.False(t, ChannelHTTP.IsWebSocket())
	assert.True(t, ChannelWSPing.IsWebSocket())
}

func TestContent_BodyTracking(t *testing.T) {
	var c Content
	assert.True(t, c.IsZero())
	assert.False(t, c.HasBody())

	c.SetBody(Text(""))
	assert.True(t, c.HasBody(), "an empty body still counts as produced")
	assert.False(t, c.IsZero())

	c.ClearBody()
	assert.False(t, c.HasBody())

	c.SetPong([]byte("world"))
	assert.True(t, c.HasPong())
	assert.Equal(t, []byte("world"), c.Pong)
}

func TestContent_Metadata(t *testing.T) {
	c := NewContent(Binary([]byte{4, 5, 6}))
	c.AddHeader("X-A", "1")
	c.AddHeader("X-A", "2")
	c.AddCookie(&http.Cookie{Name: "a", Value: "b"})

	assert.True(t, c.Binary)
	assert.Equal(t, []string{"1", "2"}, c.Header.Values("X-A"))
	assert.Len(t, c.Cookies, 1)
	assert.Equal(t, Payload{Data: []byte{4, 5, 6}, Binary: true}, c.BodyPayload())
}

func TestContent_Clone(t *testing.T) {
	c := NewContent(Text("body"))
	c.Status = http.StatusCreated
	c.AddHeader("X-A", "1")
	c.AddCookie(&http.Cookie{Name: "a", Value: "b"})
	c.SetPong([]byte("pong"))

	cp := c.Clone()
	cp.Body[0] = 'B'
	cp.Pong[0] = 'P'
	cp.Header.Set("X-A", "2")
	cp.Cookies[0].Value = "changed"

	assert.Equal(t, "body", string(c.Body))
	assert.Equal(t, "pong", string(c.Pong))
	assert.Equal(t, "1", c.Header.Get("X-A"))
	assert.Equal(t, "b", c.Cookies[0].Value)
	assert.True(t, cp.HasBody())
	assert.True(t, cp.HasPong())
	assert.Equal(t, http.StatusCreated, cp.Status)
}
