package logging

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/session"
)

func httpExchange(body string) *session.Context {
	req := &message.Request{
		Method:  "POST",
		Path:    "/foo",
		Query:   url.Values{"param": {"blah"}},
		Header:  http.Header{"Content-Type": {"text/plain"}},
		Body:    []byte(body),
		Version: message.HTTP11,
	}
	return session.New("s1", message.ChannelHTTP, req, "")
}

func TestStreamObserver_HTTP(t *testing.T) {
	var buf bytes.Buffer
	obs := NewStreamObserver(&buf)

	sc := httpExchange("hello")
	sc.SetupID = "http#1"
	c := sc.EnsureContent()
	c.Status = 201
	c.AddHeader("X-Mock", "1")
	c.AddCookie(&http.Cookie{Name: "session", Value: "abc"})
	c.SetBody(message.Text("created"))
	obs.Observe(sc)

	out := buf.String()
	assert.Contains(t, out, "setup=http#1")
	assert.Contains(t, out, "> POST /foo?param=blah HTTP/1.1")
	assert.Contains(t, out, "> Content-Type: text/plain")
	assert.Contains(t, out, "> hello")
	assert.Contains(t, out, "< 201")
	assert.Contains(t, out, "< X-Mock: 1")
	assert.Contains(t, out, "< Set-Cookie: session=abc")
	assert.Contains(t, out, "< created")
}

func TestStreamObserver_Failure(t *testing.T) {
	var buf bytes.Buffer
	obs := NewStreamObserver(&buf)

	sc := httpExchange("x")
	sc.Fail(session.FailureResolver, errors.New("upstream timed out"))
	obs.Observe(sc)

	assert.Contains(t, buf.String(), "! ResolverFailure (*errors.errorString): upstream timed out")
}

type silentError struct{}

func (silentError) Error() string { return "" }

func TestStreamObserver_FailureNamesErrorType(t *testing.T) {
	var buf bytes.Buffer
	obs := NewStreamObserver(&buf)

	sc := httpExchange("x")
	sc.Fail(session.FailureResolver, silentError{})
	obs.Observe(sc)

	assert.Contains(t, buf.String(), "! ResolverFailure (logging.silentError): \n")
}

func TestStreamObserver_WebSocket(t *testing.T) {
	var buf bytes.Buffer
	obs := NewStreamObserver(&buf)

	sc := session.New("s2", message.ChannelWSPing, message.PingFrame([]byte("hello")), "c1")
	sc.EnsureContent().SetPong([]byte("world"))
	obs.Observe(sc)

	bin := session.New("s3", message.ChannelWSMessage, message.BinaryFrame([]byte{1, 2}), "c1")
	obs.Observe(bin)

	out := buf.String()
	assert.Contains(t, out, "> [ping] conn=c1")
	assert.Contains(t, out, "< [pong]")
	assert.Contains(t, out, "< world")
	assert.Contains(t, out, "> (2 bytes) 0102")
	assert.Contains(t, out, "< (no reply)")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStreamObserver_WriteFailureIgnored(t *testing.T) {
	obs := NewStreamObserver(failingWriter{})
	assert.NotPanics(t, func() { obs.Observe(httpExchange("x")) })
}

func TestFileObserver_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchanges.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	obs, err := NewFileObserver(path)
	require.NoError(t, err)
	obs.Observe(httpExchange("first"))
	require.NoError(t, obs.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("existing\n")))
	assert.Contains(t, string(data), "> first")
}

func TestFileObserver_Charset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.log")

	obs, err := NewFileObserverWithCharset(path, "iso-8859-1")
	require.NoError(t, err)
	obs.Observe(httpExchange("café"))
	require.NoError(t, obs.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte{'c', 'a', 'f', 0xE9}), "body should be latin-1 encoded")
	assert.False(t, bytes.Contains(data, []byte("café")), "no UTF-8 bytes expected")
}

func TestFileObserver_UnknownCharset(t *testing.T) {
	_, err := NewFileObserverWithCharset(filepath.Join(t.TempDir(), "x.log"), "klingon")
	assert.Error(t, err)
}
