package config

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mocket/pkg/group"
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/setup"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func compileYAML(t *testing.T, dir, content string) (*setup.Dispatcher, Result) {
	t.Helper()
	f, err := Parse([]byte(content))
	require.NoError(t, err)

	b := setup.NewBuilder()
	res, err := Compile(b, []Source{{Path: filepath.Join(dir, "mocks.yaml"), File: f}})
	require.NoError(t, err)
	regs, err := b.Build()
	require.NoError(t, err)
	return setup.NewDispatcher(regs, setup.WithGroups(group.NewState())), res
}

func request(method, path, body string) *message.Request {
	u, _ := url.Parse(path)
	return &message.Request{
		Method:  method,
		Path:    u.Path,
		Query:   u.Query(),
		Header:  http.Header{},
		Body:    []byte(body),
		Version: message.HTTP11,
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MOCKET_TEST_HOST", "example.com")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set", "host: ${MOCKET_TEST_HOST}", "host: example.com"},
		{"default unused", "${MOCKET_TEST_HOST:-other}", "example.com"},
		{"default used", "${MOCKET_TEST_UNSET:-fallback}", "fallback"},
		{"unset", "[${MOCKET_TEST_UNSET}]", "[]"},
		{"plain dollar", "$HOME", "$HOME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnvVars(tt.input))
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := Parse([]byte("http:\n  - respnse: {status: 200}\n"))
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Parse(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("json accepted", func(t *testing.T) {
		f, err := Parse([]byte(`{"http": [{"response": {"status": 204}}]}`))
		require.NoError(t, err)
		require.Len(t, f.HTTP, 1)
		assert.Equal(t, 204, f.HTTP[0].Response.Status)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "http:\n  - response: {text: b}\n")
	writeFile(t, dir, "a.yaml", "http:\n  - response: {text: a}\n")
	writeFile(t, dir, "nested/c.yaml", "http:\n  - response: {text: c}\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty.yaml.d"), 0o755))

	t.Run("glob sorted", func(t *testing.T) {
		sources, err := Load([]string{"*.yaml"}, dir)
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, "a.yaml", filepath.Base(sources[0].Path))
		assert.Equal(t, "b.yaml", filepath.Base(sources[1].Path))
	})

	t.Run("doublestar", func(t *testing.T) {
		sources, err := Load([]string{"**/*.yaml"}, dir)
		require.NoError(t, err)
		assert.Len(t, sources, 3)
	})

	t.Run("duplicates loaded once", func(t *testing.T) {
		sources, err := Load([]string{"b.yaml", "*.yaml"}, dir)
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, "b.yaml", filepath.Base(sources[0].Path))
		assert.Equal(t, "a.yaml", filepath.Base(sources[1].Path))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load([]string{"nope.yaml"}, dir)
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("no matches", func(t *testing.T) {
		_, err := Load([]string{"*.json"}, dir)
		assert.ErrorIs(t, err, ErrNoFiles)
	})
}

func TestCompileHTTP(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "order.json", `{"id":7}`)

	d, res := compileYAML(t, dir, `
http:
  - id: fallback
    response:
      status: 503
      text: later
  - id: create
    request:
      method: post
      path: /orders
      jsonPaths:
        $.sku: {equals: A1}
    response:
      status: 201
      headers:
        Content-Type: application/json
      cookies:
        - name: sid
          value: abc
          maxAge: 1h
          httpOnly: true
          sameSite: lax
      json: {ok: true}
  - id: file
    request:
      pathMatch: {glob: /orders/*}
      queryParams: {full: "1"}
    response:
      file: order.json
`)
	assert.Equal(t, 3, res.Setups)
	ctx := context.Background()

	sc := d.Dispatch(ctx, message.ChannelHTTP, request(http.MethodPost, "/orders", `{"sku":"A1"}`), "")
	require.False(t, sc.Failed())
	assert.Equal(t, "create", sc.SetupID)
	assert.Equal(t, 201, sc.Content.Status)
	assert.Equal(t, "application/json", sc.Content.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, string(sc.Content.Body))
	require.Len(t, sc.Content.Cookies, 1)
	c := sc.Content.Cookies[0]
	assert.Equal(t, "sid", c.Name)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	sc = d.Dispatch(ctx, message.ChannelHTTP, request(http.MethodGet, "/orders/7?full=1", ""), "")
	assert.Equal(t, "file", sc.SetupID)
	assert.Equal(t, `{"id":7}`, string(sc.Content.Body))

	sc = d.Dispatch(ctx, message.ChannelHTTP, request(http.MethodPost, "/orders", `{"sku":"B2"}`), "")
	assert.Equal(t, "fallback", sc.SetupID)
	assert.Equal(t, 503, sc.Content.Status)
	assert.Equal(t, "later", string(sc.Content.Body))
}

func TestCompileRequestCombinators(t *testing.T) {
	d, _ := compileYAML(t, t.TempDir(), `
http:
  - id: either
    request:
      anyOf:
        - {method: PUT}
        - {method: PATCH}
      not: {headers: {X-Skip: "yes"}}
    response: {text: matched}
`)
	ctx := context.Background()

	sc := d.Dispatch(ctx, message.ChannelHTTP, request(http.MethodPatch, "/", ""), "")
	assert.Equal(t, "either", sc.SetupID)

	req := request(http.MethodPut, "/", "")
	req.Header.Set("X-Skip", "yes")
	sc = d.Dispatch(ctx, message.ChannelHTTP, req, "")
	assert.False(t, sc.Matched())
	assert.Equal(t, http.StatusNotFound, sc.Content.Status)
}

func TestCompileWebSocket(t *testing.T) {
	d, res := compileYAML(t, t.TempDir(), `
websocket:
  path: /chat
  connect:
    text: welcome
  messages:
    - id: join
      match:
        text: {equals: join}
      response:
        join: room
        text: joined
    - id: say
      match:
        jsonFields: {event: say}
      response:
        broadcast:
          group: room
          text: hello
  pings:
    - payload: {equals: hi}
      pong: there
`)
	assert.Equal(t, "/chat", res.WebSocketPath)
	assert.Equal(t, 4, res.Setups)
	ctx := context.Background()

	d.Groups().Register("c1")
	sc := d.Connect(ctx, "c1")
	assert.Equal(t, "welcome", string(sc.Content.Body))

	sc = d.Dispatch(ctx, message.ChannelWSMessage, message.TextFrame("join"), "c1")
	assert.Equal(t, "join", sc.SetupID)
	assert.Equal(t, "joined", string(sc.Content.Body))
	assert.Equal(t, []group.ConnID{"c1"}, d.Groups().MembersOf("room"))

	sc = d.Dispatch(ctx, message.ChannelWSPing, message.PingFrame([]byte("hi")), "c1")
	assert.Equal(t, "there", string(sc.Content.Pong))

	sc = d.Dispatch(ctx, message.ChannelWSPing, message.PingFrame([]byte("other")), "c1")
	assert.Equal(t, "other", string(sc.Content.Pong))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		wantMsg string
	}{
		{
			name:    "ambiguous body",
			content: "http:\n  - response: {text: a, binary: YQ==}\n",
			wantErr: ErrAmbiguousBody,
			wantMsg: "http[0].response",
		},
		{
			name:    "bad base64",
			content: "http:\n  - response: {binary: '***'}\n",
			wantErr: ErrInvalidBinary,
		},
		{
			name:    "empty broadcast",
			content: "websocket:\n  messages:\n    - response: {broadcast: {group: g}}\n",
			wantErr: ErrEmptyBroadcast,
			wantMsg: "websocket.messages[0].response",
		},
		{
			name:    "bad same site",
			content: "http:\n  - response:\n      cookies: [{name: a, sameSite: sideways}]\n",
			wantErr: ErrInvalidCookie,
		},
		{
			name:    "duplicate id",
			content: "http:\n  - id: x\n    response: {}\n  - id: x\n    response: {}\n",
			wantErr: setup.ErrDuplicateID,
			wantMsg: "http[1]",
		},
		{
			name:    "bad pattern",
			content: "http:\n  - request: {pathMatch: {pattern: '('}}\n    response: {}\n",
			wantMsg: "pathMatch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.content))
			require.NoError(t, err)

			_, err = Compile(setup.NewBuilder(), []Source{{Path: "mocks.yaml", File: f}})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), "mocks.yaml")
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestExampleFileCompiles(t *testing.T) {
	sources, err := Load([]string{"../../examples/with-config-file/mocks.yaml"}, "")
	require.NoError(t, err)

	b := setup.NewBuilder()
	res, err := Compile(b, sources)
	require.NoError(t, err)
	assert.Equal(t, "/chat", res.WebSocketPath)
	assert.Equal(t, 10, res.Setups)

	_, err = b.Build()
	require.NoError(t, err)
}
