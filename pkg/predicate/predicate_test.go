package predicate

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mocket/pkg/message"
)

func newRequest(method, path, body string) *message.Request {
	return &message.Request{
		Method:  method,
		Path:    path,
		Query:   url.Values{},
		Header:  http.Header{},
		Body:    []byte(body),
		Version: message.HTTP11,
	}
}

func TestEquals(t *testing.T) {
	req := newRequest("POST", "/foo", "bar")

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"method", Equals{Method(), Text("POST")}, true},
		{"method mismatch", Equals{Method(), Text("GET")}, false},
		{"path", Equals{Path(), Text("/foo")}, true},
		{"body", Equals{Body(), Text("bar")}, true},
		{"body bytes", Equals{Body(), Bytes([]byte("bar"))}, true},
		{"body prefix is not equal", Equals{Body(), Text("ba")}, false},
		{"version", Equals{Version(), Text("HTTP/1.1")}, true},
		{"missing header", Equals{Header("X-Missing"), Text("")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.pred, req))
		})
	}
}

func TestVersion_Canonical(t *testing.T) {
	req := newRequest("GET", "/", "")
	req.Version = message.HTTP10

	v, err := Version().Extract(req)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.0", v.String())
}

func TestStringPredicates(t *testing.T) {
	req := newRequest("GET", "/api/v1/users/42", "hello world")
	req.Query.Set("param", "blah")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Add("Cookie", "session=abc")

	assert.True(t, Evaluate(Contains{Body(), Text("lo wo")}, req))
	assert.False(t, Evaluate(Contains{Body(), Text("xyz")}, req))
	assert.True(t, Evaluate(StartsWith{Path(), Text("/api/")}, req))
	assert.True(t, Evaluate(EndsWith{Path(), Text("/42")}, req))
	assert.True(t, Evaluate(Equals{Query("param"), Text("blah")}, req))
	assert.False(t, Evaluate(Equals{Query("other"), Text("blah")}, req))
	assert.True(t, Evaluate(StartsWith{Header("content-type"), Text("application/json")}, req))
	assert.True(t, Evaluate(Equals{Cookie("session"), Text("abc")}, req))
	assert.True(t, Evaluate(Exists{Header("Content-Type")}, req))
	assert.False(t, Evaluate(Exists{Header("Authorization")}, req))
}

func TestMatches(t *testing.T) {
	req := newRequest("GET", "/foo/123", "")

	m, err := NewMatches(Path(), `/foo/\d+`)
	require.NoError(t, err)
	assert.True(t, Evaluate(m, req))

	m, err = NewMatches(Path(), `/foo`)
	require.NoError(t, err)
	assert.False(t, Evaluate(m, req), "pattern must cover the whole value")

	partial := Matches{Extractor: Path(), Pattern: regexp.MustCompile(`\d+`)}
	assert.True(t, Evaluate(partial, req))

	_, err = NewMatches(Path(), `(`)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestGlob(t *testing.T) {
	req := newRequest("GET", "/api/v1/users/42", "")

	g, err := NewGlob(Path(), "/api/**/users/*")
	require.NoError(t, err)
	assert.True(t, Evaluate(g, req))

	g, err = NewGlob(Path(), "/api/*/42")
	require.NoError(t, err)
	assert.False(t, Evaluate(g, req))

	_, err = NewGlob(Path(), "/api/[")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestCombinators(t *testing.T) {
	req := newRequest("POST", "/foo", "bar")
	yes := Equals{Method(), Text("POST")}
	no := Equals{Method(), Text("GET")}

	assert.True(t, Evaluate(And{yes, yes}, req))
	assert.False(t, Evaluate(And{yes, no}, req))
	assert.True(t, Evaluate(And{}, req))
	assert.True(t, Evaluate(Or{no, yes}, req))
	assert.False(t, Evaluate(Or{no, no}, req))
	assert.False(t, Evaluate(Or{}, req))
	assert.True(t, Evaluate(Not{no}, req))
	assert.False(t, Evaluate(Not{yes}, req))
	assert.True(t, Evaluate(Any{}, req))
	assert.False(t, Evaluate(nil, req))
}

func TestAbsenceIsNonMatch(t *testing.T) {
	text := message.TextFrame("hello")

	// HTTP extractors on a WebSocket frame report no value.
	assert.False(t, Evaluate(Equals{Method(), Text("")}, text))
	assert.False(t, Evaluate(Matches{Path(), regexp.MustCompile(`.*`)}, text))
	assert.True(t, Evaluate(Not{Exists{Body()}}, text))

	// Frame kind mismatch.
	assert.False(t, Evaluate(Equals{FrameBinary(), Bytes([]byte("hello"))}, text))
	assert.True(t, Evaluate(Equals{FrameText(), Text("hello")}, text))
}

func TestFramePayloads(t *testing.T) {
	bin := message.BinaryFrame([]byte{1, 2, 3})
	ping := message.PingFrame([]byte("hello"))

	assert.True(t, Evaluate(Equals{FrameBinary(), Bytes([]byte{1, 2, 3})}, bin))
	assert.False(t, Evaluate(Equals{FrameBinary(), Bytes([]byte{1, 2})}, bin))
	assert.True(t, Evaluate(Equals{Payload(), Text("hello")}, ping))
	assert.True(t, Evaluate(Equals{Payload(), Bytes([]byte{1, 2, 3})}, bin))
	assert.False(t, Evaluate(Exists{Payload()}, message.ConnectFrame()))
}

func TestJSONPath(t *testing.T) {
	req := newRequest("POST", "/", `{"user":{"name":"ada","age":36},"tags":["a","b"]}`)

	name, err := JSONPath(Body(), "$.user.name")
	require.NoError(t, err)
	assert.True(t, Evaluate(Equals{name, Text("ada")}, req))

	age, err := JSONPath(Body(), "$.user.age")
	require.NoError(t, err)
	assert.True(t, Evaluate(Equals{age, Text("36")}, req))

	tag, err := JSONPath(Body(), "$.tags[1]")
	require.NoError(t, err)
	assert.True(t, Evaluate(Equals{tag, Text("b")}, req))

	missing, err := JSONPath(Body(), "$.user.email")
	require.NoError(t, err)
	assert.False(t, Evaluate(Exists{missing}, req))

	assert.False(t, Evaluate(Exists{name}, newRequest("POST", "/", "not json")))

	_, err = JSONPath(Body(), "$[")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestJSONField(t *testing.T) {
	frame := message.TextFrame(`{"event":"subscribe","data":{"id":7}}`)

	ev := JSONField(FrameText(), "event")
	assert.True(t, Evaluate(Equals{ev, Text("subscribe")}, frame))
	assert.True(t, Evaluate(Equals{JSONField(FrameText(), "data.id"), Text("7")}, frame))
	assert.False(t, Evaluate(Exists{JSONField(FrameText(), "data.missing")}, frame))
	assert.False(t, Evaluate(Exists{ev}, message.TextFrame("{broken")))
}

func TestXPath(t *testing.T) {
	req := newRequest("POST", "/soap", `<root><order id="9"><item> apple </item><item>pear</item></order></root>`)

	item, err := XPath(Body(), "/root/order/item")
	require.NoError(t, err)
	assert.True(t, Evaluate(Equals{item, Text("apple")}, req))

	second, err := XPath(Body(), "//item[2]")
	require.NoError(t, err)
	assert.True(t, Evaluate(Equals{second, Text("pear")}, req))

	id, err := XPath(Body(), "/root/order/@id")
	require.NoError(t, err)
	assert.True(t, Evaluate(Equals{id, Text("9")}, req))

	none, err := XPath(Body(), "/root/missing")
	require.NoError(t, err)
	assert.False(t, Evaluate(Exists{none}, req))

	assert.False(t, Evaluate(Exists{item}, newRequest("POST", "/", "<unclosed")))
}

func TestExpr(t *testing.T) {
	req := newRequest("POST", "/orders", `{"id":1}`)
	req.Header.Set("X-Tenant", "acme")

	e, err := NewExpr(`method == "POST" && headers["X-Tenant"] == "acme" && body contains "id"`)
	require.NoError(t, err)
	assert.True(t, Evaluate(e, req))

	e, err = NewExpr(`kind == "text" && payload startsWith "sub:"`)
	require.NoError(t, err)
	assert.True(t, Evaluate(e, message.TextFrame("sub:news")))
	assert.False(t, Evaluate(e, req))

	_, err = NewExpr(`method +`)
	assert.ErrorIs(t, err, ErrInvalidExpression)

	_, err = NewExpr(`path`)
	assert.ErrorIs(t, err, ErrInvalidExpression, "non-boolean expressions are rejected")
}

func TestFaultyExtractor(t *testing.T) {
	var buf bytes.Buffer
	ev := NewEvaluator(slog.New(slog.NewTextHandler(&buf, nil)))
	req := newRequest("GET", "/", "")

	panicky := NewExtractor("panicky", func(message.Message) (Value, error) {
		panic("boom")
	})
	failing := NewExtractor("failing", func(message.Message) (Value, error) {
		return Value{}, errors.New("broken")
	})

	assert.False(t, ev.Evaluate(Equals{panicky, Text("x")}, req))
	assert.False(t, ev.Evaluate(Exists{failing}, req))
	assert.True(t, ev.Evaluate(Not{Exists{failing}}, req))

	_, err := panicky.Extract(req)
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "panicky", evalErr.Extractor)

	out := buf.String()
	assert.True(t, strings.Contains(out, "extractor failed"), out)
	assert.True(t, strings.Contains(out, "failing"), out)
}
