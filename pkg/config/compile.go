package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/predicate"
	"github.com/getmockd/mocket/pkg/resolve"
	"github.com/getmockd/mocket/pkg/setup"
)

// Common errors for compiling mock files.
var (
	ErrAmbiguousBody  = errors.New("only one of text, binary, json or file may be set")
	ErrInvalidBinary  = errors.New("binary must be base64")
	ErrEmptyBroadcast = errors.New("broadcast needs a body")
	ErrInvalidCookie  = errors.New("invalid cookie")
)

// Result summarises a compilation.
type Result struct {
	// WebSocketPath is the endpoint path from the last file that set one.
	WebSocketPath string
	// Setups is the number of setups registered.
	Setups int
}

// Compile registers the setups of every source with b, in order.
func Compile(b *setup.Builder, sources []Source) (Result, error) {
	var res Result
	for _, src := range sources {
		n, wsPath, err := compileFile(b, src.File, src.Dir())
		if err != nil {
			return res, fmt.Errorf("%s: %w", src.Path, err)
		}
		res.Setups += n
		if wsPath != "" {
			res.WebSocketPath = wsPath
		}
	}
	return res, nil
}

func compileFile(b *setup.Builder, f *File, dir string) (int, string, error) {
	n := 0
	add := func(ch message.Channel, id string, p predicate.Predicate, r resolve.Resolver) error {
		if _, err := b.AddSetup(ch, setup.Spec{ID: id, Predicate: p, Resolver: r}); err != nil {
			return err
		}
		n++
		return nil
	}

	for i, h := range f.HTTP {
		p, err := compileRequest(h.Request)
		if err != nil {
			return n, "", fmt.Errorf("http[%d].request: %w", i, err)
		}
		r, err := compileResponse(h.Response, dir)
		if err != nil {
			return n, "", fmt.Errorf("http[%d].response: %w", i, err)
		}
		if err := add(message.ChannelHTTP, h.ID, p, r); err != nil {
			return n, "", fmt.Errorf("http[%d]: %w", i, err)
		}
	}

	ws := f.WebSocket
	if ws == nil {
		return n, "", nil
	}
	if ws.Connect != nil {
		r, err := compileFrameResponse(*ws.Connect, dir)
		if err != nil {
			return n, "", fmt.Errorf("websocket.connect: %w", err)
		}
		if _, err := b.SetConnectHandler(r); err != nil {
			return n, "", fmt.Errorf("websocket.connect: %w", err)
		}
		n++
	}
	for i, m := range ws.Messages {
		p, err := compileFrame(m.Match)
		if err != nil {
			return n, "", fmt.Errorf("websocket.messages[%d].match: %w", i, err)
		}
		r, err := compileFrameResponse(m.Response, dir)
		if err != nil {
			return n, "", fmt.Errorf("websocket.messages[%d].response: %w", i, err)
		}
		if err := add(message.ChannelWSMessage, m.ID, p, r); err != nil {
			return n, "", fmt.Errorf("websocket.messages[%d]: %w", i, err)
		}
	}
	for i, ping := range ws.Pings {
		var p predicate.Predicate
		if ping.Payload != nil {
			preds, err := compileText(predicate.Payload(), *ping.Payload)
			if err != nil {
				return n, "", fmt.Errorf("websocket.pings[%d].payload: %w", i, err)
			}
			p = all(preds)
		}
		if err := add(message.ChannelWSPing, ping.ID, p, resolve.Pong{Data: []byte(ping.Pong)}); err != nil {
			return n, "", fmt.Errorf("websocket.pings[%d]: %w", i, err)
		}
	}
	return n, ws.Path, nil
}

func all(preds []predicate.Predicate) predicate.Predicate {
	switch len(preds) {
	case 0:
		return predicate.Any{}
	case 1:
		return preds[0]
	default:
		return predicate.And(preds)
	}
}

func equals(ex predicate.Extractor, s string) predicate.Predicate {
	return predicate.Equals{Extractor: ex, Value: predicate.Text(s)}
}

func compileText(ex predicate.Extractor, m TextMatch) ([]predicate.Predicate, error) {
	var preds []predicate.Predicate
	if m.Equals != nil {
		preds = append(preds, equals(ex, *m.Equals))
	}
	if m.Contains != "" {
		preds = append(preds, predicate.Contains{Extractor: ex, Value: predicate.Text(m.Contains)})
	}
	if m.StartsWith != "" {
		preds = append(preds, predicate.StartsWith{Extractor: ex, Value: predicate.Text(m.StartsWith)})
	}
	if m.EndsWith != "" {
		preds = append(preds, predicate.EndsWith{Extractor: ex, Value: predicate.Text(m.EndsWith)})
	}
	if m.Pattern != "" {
		p, err := predicate.NewMatches(ex, m.Pattern)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if m.Glob != "" {
		p, err := predicate.NewGlob(ex, m.Glob)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if m.Exists != nil {
		var p predicate.Predicate = predicate.Exists{Extractor: ex}
		if !*m.Exists {
			p = predicate.Not{P: p}
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// documentMatches compiles the jsonPaths, jsonFields and xpaths sections
// against the value produced by src.
func documentMatches(src predicate.Extractor, jsonPaths map[string]TextMatch, jsonFields, xpaths map[string]string) ([]predicate.Predicate, error) {
	var preds []predicate.Predicate
	for _, path := range slices.Sorted(maps.Keys(jsonPaths)) {
		ex, err := predicate.JSONPath(src, path)
		if err != nil {
			return nil, err
		}
		ps, err := compileText(ex, jsonPaths[path])
		if err != nil {
			return nil, fmt.Errorf("jsonPaths[%s]: %w", path, err)
		}
		preds = append(preds, ps...)
	}
	for _, field := range slices.Sorted(maps.Keys(jsonFields)) {
		preds = append(preds, equals(predicate.JSONField(src, field), jsonFields[field]))
	}
	for _, path := range slices.Sorted(maps.Keys(xpaths)) {
		ex, err := predicate.XPath(src, path)
		if err != nil {
			return nil, err
		}
		preds = append(preds, equals(ex, xpaths[path]))
	}
	return preds, nil
}

func compileRequest(m *RequestMatch) (predicate.Predicate, error) {
	if m == nil {
		return nil, nil
	}

	var preds []predicate.Predicate
	if m.Method != "" {
		preds = append(preds, equals(predicate.Method(), strings.ToUpper(m.Method)))
	}
	if m.Path != "" {
		preds = append(preds, equals(predicate.Path(), m.Path))
	}
	if m.PathMatch != nil {
		ps, err := compileText(predicate.Path(), *m.PathMatch)
		if err != nil {
			return nil, fmt.Errorf("pathMatch: %w", err)
		}
		preds = append(preds, ps...)
	}
	if m.Version != "" {
		v := m.Version
		if !strings.HasPrefix(strings.ToUpper(v), "HTTP/") {
			v = "HTTP/" + v
		}
		preds = append(preds, equals(predicate.Version(), strings.ToUpper(v)))
	}
	for _, name := range slices.Sorted(maps.Keys(m.Headers)) {
		preds = append(preds, equals(predicate.Header(name), m.Headers[name]))
	}
	for _, name := range slices.Sorted(maps.Keys(m.QueryParams)) {
		preds = append(preds, equals(predicate.Query(name), m.QueryParams[name]))
	}
	for _, name := range slices.Sorted(maps.Keys(m.Cookies)) {
		preds = append(preds, equals(predicate.Cookie(name), m.Cookies[name]))
	}
	if m.Body != nil {
		ps, err := compileText(predicate.Body(), *m.Body)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		preds = append(preds, ps...)
	}
	docs, err := documentMatches(predicate.Body(), m.JSONPaths, m.JSONFields, m.XPaths)
	if err != nil {
		return nil, err
	}
	preds = append(preds, docs...)
	if m.Expr != "" {
		e, err := predicate.NewExpr(m.Expr)
		if err != nil {
			return nil, err
		}
		preds = append(preds, e)
	}
	if len(m.AnyOf) > 0 {
		or := make(predicate.Or, 0, len(m.AnyOf))
		for i := range m.AnyOf {
			p, err := compileRequest(&m.AnyOf[i])
			if err != nil {
				return nil, fmt.Errorf("anyOf[%d]: %w", i, err)
			}
			or = append(or, p)
		}
		preds = append(preds, or)
	}
	if m.Not != nil {
		p, err := compileRequest(m.Not)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		preds = append(preds, predicate.Not{P: p})
	}
	return all(preds), nil
}

func compileFrame(m *FrameMatch) (predicate.Predicate, error) {
	if m == nil {
		return nil, nil
	}

	var preds []predicate.Predicate
	if m.Text != nil {
		ps, err := compileText(predicate.FrameText(), *m.Text)
		if err != nil {
			return nil, fmt.Errorf("text: %w", err)
		}
		preds = append(preds, ps...)
	}
	if m.Binary != "" {
		data, err := base64.StdEncoding.DecodeString(m.Binary)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidBinary, err)
		}
		preds = append(preds, predicate.Equals{Extractor: predicate.FrameBinary(), Value: predicate.Bytes(data)})
	}
	docs, err := documentMatches(predicate.Payload(), m.JSONPaths, m.JSONFields, m.XPaths)
	if err != nil {
		return nil, err
	}
	preds = append(preds, docs...)
	if m.Expr != "" {
		e, err := predicate.NewExpr(m.Expr)
		if err != nil {
			return nil, err
		}
		preds = append(preds, e)
	}
	if len(m.AnyOf) > 0 {
		or := make(predicate.Or, 0, len(m.AnyOf))
		for i := range m.AnyOf {
			p, err := compileFrame(&m.AnyOf[i])
			if err != nil {
				return nil, fmt.Errorf("anyOf[%d]: %w", i, err)
			}
			or = append(or, p)
		}
		preds = append(preds, or)
	}
	if m.Not != nil {
		p, err := compileFrame(m.Not)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		preds = append(preds, predicate.Not{P: p})
	}
	return all(preds), nil
}

// payload decodes a body definition. ok is false when no body is set.
func payload(b Body, dir string) (p message.Payload, ok bool, err error) {
	set := 0
	if b.Text != nil {
		set++
		p = message.Text(*b.Text)
	}
	if b.Binary != "" {
		set++
		data, err := base64.StdEncoding.DecodeString(b.Binary)
		if err != nil {
			return p, false, fmt.Errorf("%w: %w", ErrInvalidBinary, err)
		}
		p = message.Binary(data)
	}
	if b.JSON != nil {
		set++
		data, err := json.Marshal(b.JSON)
		if err != nil {
			return p, false, fmt.Errorf("encoding json body: %w", err)
		}
		p = message.Payload{Data: data}
	}
	if b.File != "" {
		set++
		data, err := os.ReadFile(ResolvePath(dir, b.File))
		if err != nil {
			return p, false, fmt.Errorf("reading body file: %w", err)
		}
		p = message.Payload{Data: data, Binary: !utf8.Valid(data)}
	}
	if set > 1 {
		return message.Payload{}, false, ErrAmbiguousBody
	}
	return p, set == 1, nil
}

func compileResponse(r ResponseDef, dir string) (resolve.Resolver, error) {
	var seq resolve.Sequence
	if r.Status != 0 {
		seq.Resolvers = append(seq.Resolvers, resolve.Status{Code: r.Status})
	}
	for _, name := range slices.Sorted(maps.Keys(r.Headers)) {
		seq.Resolvers = append(seq.Resolvers, resolve.Header{Name: name, Value: r.Headers[name]})
	}
	for i, c := range r.Cookies {
		cookie, err := compileCookie(c)
		if err != nil {
			return nil, fmt.Errorf("cookies[%d]: %w", i, err)
		}
		seq.Resolvers = append(seq.Resolvers, cookie)
	}
	p, ok, err := payload(r.Body, dir)
	if err != nil {
		return nil, err
	}
	if ok {
		seq.Resolvers = append(seq.Resolvers, resolve.Literal{Payload: p})
	}
	if len(seq.Resolvers) == 1 {
		return seq.Resolvers[0], nil
	}
	return seq, nil
}

func compileCookie(c CookieDef) (resolve.Cookie, error) {
	if c.Name == "" {
		return resolve.Cookie{}, fmt.Errorf("%w: missing name", ErrInvalidCookie)
	}
	out := resolve.Cookie{Name: c.Name, Value: c.Value}
	if c.Path != "" {
		out.Attributes = append(out.Attributes, resolve.Path(c.Path))
	}
	if c.Domain != "" {
		out.Attributes = append(out.Attributes, resolve.Domain(c.Domain))
	}
	if c.MaxAge != "" {
		d, err := parseMaxAge(c.MaxAge)
		if err != nil {
			return resolve.Cookie{}, err
		}
		out.Attributes = append(out.Attributes, resolve.MaxAge(d))
	}
	if c.Secure {
		out.Attributes = append(out.Attributes, resolve.Secure())
	}
	if c.HTTPOnly {
		out.Attributes = append(out.Attributes, resolve.HTTPOnly())
	}
	if c.SameSite != "" {
		var mode http.SameSite
		switch strings.ToLower(c.SameSite) {
		case "lax":
			mode = http.SameSiteLaxMode
		case "strict":
			mode = http.SameSiteStrictMode
		case "none":
			mode = http.SameSiteNoneMode
		default:
			return resolve.Cookie{}, fmt.Errorf("%w: sameSite %q", ErrInvalidCookie, c.SameSite)
		}
		out.Attributes = append(out.Attributes, resolve.SameSite(mode))
	}
	return out, nil
}

// parseMaxAge accepts whole seconds ("3600") or a Go duration ("1h").
func parseMaxAge(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: maxAge %q", ErrInvalidCookie, s)
	}
	return d, nil
}

func compileFrameResponse(r FrameResponse, dir string) (resolve.Resolver, error) {
	var seq resolve.Sequence
	if r.Join != "" {
		seq.Resolvers = append(seq.Resolvers, resolve.JoinGroup{Group: r.Join})
	}
	p, ok, err := payload(r.Body, dir)
	if err != nil {
		return nil, err
	}
	if ok {
		seq.Resolvers = append(seq.Resolvers, resolve.Literal{Payload: p})
	}
	if r.Broadcast != nil {
		bp, ok, err := payload(r.Broadcast.Body, dir)
		if err != nil {
			return nil, fmt.Errorf("broadcast: %w", err)
		}
		if !ok {
			return nil, ErrEmptyBroadcast
		}
		seq.Resolvers = append(seq.Resolvers, resolve.Broadcast{Payload: bp, Group: r.Broadcast.Group})
	}
	if len(seq.Resolvers) == 1 {
		return seq.Resolvers[0], nil
	}
	return seq, nil
}
