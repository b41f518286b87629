package setup

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mocket/pkg/group"
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/predicate"
	"github.com/getmockd/mocket/pkg/resolve"
	"github.com/getmockd/mocket/pkg/session"
)

func bodyIs(s string) predicate.Predicate {
	return predicate.Equals{Extractor: predicate.Body(), Value: predicate.Text(s)}
}

func textIs(s string) predicate.Predicate {
	return predicate.Equals{Extractor: predicate.FrameText(), Value: predicate.Text(s)}
}

func post(body string) *message.Request {
	return &message.Request{
		Method:  http.MethodPost,
		Path:    "/",
		Query:   url.Values{},
		Header:  http.Header{},
		Body:    []byte(body),
		Version: message.HTTP11,
	}
}

func mustAdd(t *testing.T, b *Builder, ch message.Channel, s Spec) string {
	t.Helper()
	id, err := b.AddSetup(ch, s)
	require.NoError(t, err)
	return id
}

func mustBuild(t *testing.T, b *Builder) *Registries {
	t.Helper()
	regs, err := b.Build()
	require.NoError(t, err)
	return regs
}

func body(sc *session.Context) string {
	if sc.Content == nil {
		return ""
	}
	return string(sc.Content.Body)
}

func TestDispatch_SpecificBeatsCatchAll(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, message.ChannelHTTP, Spec{Predicate: bodyIs("foo"), Resolver: resolve.Text("specific")})
	mustAdd(t, b, message.ChannelHTTP, Spec{Resolver: resolve.Text("catch-all")})
	d := NewDispatcher(mustBuild(t, b))

	sc := d.Dispatch(context.Background(), message.ChannelHTTP, post("foo"), "")
	assert.Equal(t, "specific", body(sc), "specific wins although the catch-all is newer")

	sc = d.Dispatch(context.Background(), message.ChannelHTTP, post("other"), "")
	assert.Equal(t, "catch-all", body(sc))
}

func TestDispatch_RecencyAmongSpecifics(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, message.ChannelHTTP, Spec{Predicate: bodyIs("foo"), Resolver: resolve.Text("old")})
	newest := mustAdd(t, b, message.ChannelHTTP, Spec{Predicate: bodyIs("foo"), Resolver: resolve.Text("new")})
	d := NewDispatcher(mustBuild(t, b))

	sc := d.Dispatch(context.Background(), message.ChannelHTTP, post("foo"), "")
	assert.Equal(t, "new", body(sc))
	assert.Equal(t, newest, sc.SetupID)
}

func TestDispatch_CatchAllRecency(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, message.ChannelHTTP, Spec{Resolver: resolve.Text("first")})
	mustAdd(t, b, message.ChannelHTTP, Spec{Resolver: resolve.Text("second")})
	d := NewDispatcher(mustBuild(t, b))

	sc := d.Dispatch(context.Background(), message.ChannelHTTP, post("x"), "")
	assert.Equal(t, "second", body(sc))
}

func TestDispatch_BodyRoundTripAndDefault(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, message.ChannelHTTP, Spec{Predicate: bodyIs("X"), Resolver: resolve.Text("Y")})
	d := NewDispatcher(mustBuild(t, b))

	sc := d.Dispatch(context.Background(), message.ChannelHTTP, post("X"), "")
	assert.Equal(t, "Y", body(sc))
	assert.True(t, sc.Matched())

	sc = d.Dispatch(context.Background(), message.ChannelHTTP, post("Z"), "")
	assert.False(t, sc.Matched())
	require.NotNil(t, sc.Content)
	assert.Equal(t, http.StatusNotFound, sc.Content.Status)
}

func TestDispatch_WebSocketDefaults(t *testing.T) {
	d := NewDispatcher(mustBuild(t, NewBuilder()))

	sc := d.Dispatch(context.Background(), message.ChannelWSMessage, message.TextFrame("hi"), "c1")
	assert.Nil(t, sc.Content, "unmatched messages get no reply")

	sc = d.Dispatch(context.Background(), message.ChannelWSPing, message.PingFrame([]byte("hello")), "c1")
	require.NotNil(t, sc.Content)
	assert.Equal(t, []byte("hello"), sc.Content.Pong)

	sc = d.Connect(context.Background(), "c1")
	assert.Nil(t, sc.Content)
}

func TestDispatch_PingPong(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, message.ChannelWSPing, Spec{
		Predicate: predicate.Equals{Extractor: predicate.Payload(), Value: predicate.Text("hello")},
		Resolver:  resolve.Pong{Data: []byte("world")},
	})
	mustAdd(t, b, message.ChannelWSPing, Spec{
		Predicate: predicate.Equals{Extractor: predicate.Payload(), Value: predicate.Text("body")},
		Resolver:  resolve.Text("as-pong"),
	})
	d := NewDispatcher(mustBuild(t, b))

	sc := d.Dispatch(context.Background(), message.ChannelWSPing, message.PingFrame([]byte("hello")), "c1")
	assert.Equal(t, []byte("world"), sc.Content.Pong)

	sc = d.Dispatch(context.Background(), message.ChannelWSPing, message.PingFrame([]byte("body")), "c1")
	assert.Equal(t, []byte("as-pong"), sc.Content.Pong)
	assert.False(t, sc.Content.HasBody())

	sc = d.Dispatch(context.Background(), message.ChannelWSPing, message.PingFrame([]byte("other")), "c1")
	assert.Equal(t, []byte("other"), sc.Content.Pong)
}

func TestDispatch_PingWithoutContentIsEchoed(t *testing.T) {
	groups := group.NewState()
	groups.Register("c1")

	b := NewBuilder()
	mustAdd(t, b, message.ChannelWSPing, Spec{
		Predicate: predicate.Equals{Extractor: predicate.Payload(), Value: predicate.Text("join")},
		Resolver:  resolve.JoinGroup{Group: "pingers"},
	})
	mustAdd(t, b, message.ChannelWSPing, Spec{
		Predicate: predicate.Equals{Extractor: predicate.Payload(), Value: predicate.Text("quiet")},
		Resolver:  resolve.Delegate{Handler: resolve.HandlerFunc(func(context.Context, message.Message) (message.Payload, error) {
			return message.Payload{}, nil
		})},
	})
	d := NewDispatcher(mustBuild(t, b), WithGroups(groups))

	sc := d.Dispatch(context.Background(), message.ChannelWSPing, message.PingFrame([]byte("join")), "c1")
	require.True(t, sc.Matched())
	require.NotNil(t, sc.Content)
	assert.True(t, sc.Content.HasPong())
	assert.Equal(t, []byte("join"), sc.Content.Pong)
	assert.Equal(t, []group.ConnID{"c1"}, groups.MembersOf("pingers"))

	sc = d.Dispatch(context.Background(), message.ChannelWSPing, message.PingFrame([]byte("quiet")), "c1")
	require.True(t, sc.Content.HasPong())
	assert.Empty(t, sc.Content.Pong, "an empty delegate body is an empty pong")
}

func TestDispatch_ConnectHandler(t *testing.T) {
	groups := group.NewState()
	groups.Register("c1")

	b := NewBuilder()
	_, err := b.SetConnectHandler(resolve.JoinGroup{Group: "lobby"})
	require.NoError(t, err)
	_, err = b.SetConnectHandler(resolve.Seq(resolve.JoinGroup{Group: "hall"}, resolve.Text("welcome")))
	require.NoError(t, err)
	d := NewDispatcher(mustBuild(t, b), WithGroups(groups))

	sc := d.Connect(context.Background(), "c1")
	assert.Equal(t, "welcome", body(sc))
	assert.Equal(t, []string{"hall"}, groups.GroupsOf("c1"), "only the newest connect handler runs")
}

func TestDispatch_DelegateFailureObserved(t *testing.T) {
	var got []*session.Context
	var mu sync.Mutex
	obs := session.ObserverFunc(func(sc *session.Context) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, sc)
	})

	b := NewBuilder()
	mustAdd(t, b, message.ChannelHTTP, Spec{Resolver: resolve.Delegate{Handler: resolve.HandlerFunc(
		func(context.Context, message.Message) (message.Payload, error) {
			return message.Payload{}, errors.New("database unavailable")
		},
	)}})
	d := NewDispatcher(mustBuild(t, b), WithObserver(obs))

	sc := d.Dispatch(context.Background(), message.ChannelHTTP, post("x"), "")
	require.True(t, sc.Failed())
	assert.Nil(t, sc.Content)

	require.Len(t, got, 1, "observer called exactly once")
	assert.NotSame(t, sc, got[0], "observers get a copy")
	assert.Equal(t, sc.ID, got[0].ID)
	assert.Equal(t, session.FailureResolver, got[0].Failure.Kind)
	assert.Contains(t, got[0].Failure.Message, "database unavailable")
}

func TestDispatch_ObserverPanicRecovered(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, message.ChannelHTTP, Spec{Resolver: resolve.Text("ok")})
	d := NewDispatcher(mustBuild(t, b), WithObserver(session.ObserverFunc(func(*session.Context) {
		panic("observer bug")
	})))

	var sc *session.Context
	assert.NotPanics(t, func() {
		sc = d.Dispatch(context.Background(), message.ChannelHTTP, post("x"), "")
	})
	assert.Equal(t, "ok", body(sc))
}

func TestDispatch_ObserverCannotChangeOutcome(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, message.ChannelHTTP, Spec{
		Predicate: bodyIs("X"),
		Resolver:  resolve.Seq(resolve.Header{Name: "X-Mock", Value: "1"}, resolve.Text("Y")),
	})
	d := NewDispatcher(mustBuild(t, b), WithObserver(session.ObserverFunc(func(sc *session.Context) {
		sc.Content.Body[0] = 'Z'
		sc.Content.Header.Set("X-Mock", "changed")
		sc.Content = nil
		sc.SetupID = ""
	})))

	sc := d.Dispatch(context.Background(), message.ChannelHTTP, post("X"), "")
	assert.True(t, sc.Matched())
	assert.Equal(t, "Y", body(sc))
	assert.Equal(t, "1", sc.Content.Header.Get("X-Mock"))
}

func TestDispatch_ObserverCannotClearFailure(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, message.ChannelHTTP, Spec{Resolver: resolve.Delegate{Handler: resolve.HandlerFunc(
		func(context.Context, message.Message) (message.Payload, error) {
			return message.Payload{}, errors.New("boom")
		},
	)}})
	d := NewDispatcher(mustBuild(t, b), WithObserver(session.ObserverFunc(func(sc *session.Context) {
		sc.Failure.Message = "rewritten"
		sc.Failure = nil
	})))

	sc := d.Dispatch(context.Background(), message.ChannelHTTP, post("x"), "")
	require.True(t, sc.Failed())
	assert.Equal(t, "boom", sc.Failure.Message)
}

type captureDeliverer struct {
	mu  sync.Mutex
	got map[group.ConnID][]string
}

func (c *captureDeliverer) Deliver(id group.ConnID, content message.Content) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.got == nil {
		c.got = make(map[group.ConnID][]string)
	}
	c.got[id] = append(c.got[id], string(content.Body))
	return nil
}

func TestDispatch_GroupBroadcastScenario(t *testing.T) {
	groups := group.NewState()
	del := &captureDeliverer{}

	b := NewBuilder()
	mustAdd(t, b, message.ChannelWSMessage, Spec{Predicate: textIs("join"), Resolver: resolve.JoinGroup{Group: "g"}})
	mustAdd(t, b, message.ChannelWSMessage, Spec{
		Predicate: textIs("say"),
		Resolver:  resolve.Broadcast{Payload: message.Text("hi"), Group: "g"},
	})
	d := NewDispatcher(mustBuild(t, b), WithGroups(groups), WithDeliverer(del))

	for _, id := range []group.ConnID{"a", "b", "c"} {
		groups.Register(id)
	}
	ctx := context.Background()
	d.Dispatch(ctx, message.ChannelWSMessage, message.TextFrame("join"), "a")
	d.Dispatch(ctx, message.ChannelWSMessage, message.TextFrame("join"), "b")
	d.Dispatch(ctx, message.ChannelWSMessage, message.TextFrame("say"), "a")

	assert.Equal(t, []string{"hi"}, del.got["a"])
	assert.Equal(t, []string{"hi"}, del.got["b"])
	assert.Empty(t, del.got["c"])

	groups.Unregister("b")
	d.Dispatch(ctx, message.ChannelWSMessage, message.TextFrame("say"), "a")
	assert.Equal(t, []string{"hi", "hi"}, del.got["a"])
	assert.Equal(t, []string{"hi"}, del.got["b"], "disconnected members receive nothing")
}

func TestBuilder_Frozen(t *testing.T) {
	b := NewBuilder()
	mustBuild(t, b)

	_, err := b.AddSetup(message.ChannelHTTP, Spec{Resolver: resolve.Text("late")})
	assert.ErrorIs(t, err, ErrFrozen)

	_, err = b.Build()
	assert.ErrorIs(t, err, ErrFrozen)
}

func TestBuilder_Validation(t *testing.T) {
	tests := []struct {
		name string
		ch   message.Channel
		r    resolve.Resolver
		want error
	}{
		{"unknown channel", "smtp", resolve.Text("x"), ErrUnknownChannel},
		{"nil resolver", message.ChannelHTTP, nil, ErrNilResolver},
		{"join on http", message.ChannelHTTP, resolve.JoinGroup{Group: "g"}, ErrResolverNotAllowed},
		{"broadcast nested on http", message.ChannelHTTP, resolve.Seq(resolve.Text("x"), resolve.Broadcast{}), ErrResolverNotAllowed},
		{"pong on message", message.ChannelWSMessage, resolve.Pong{}, ErrResolverNotAllowed},
		{"status on websocket", message.ChannelWSMessage, resolve.Status{Code: 200}, ErrResolverNotAllowed},
		{"nil inside sequence", message.ChannelHTTP, resolve.Seq(nil), ErrNilResolver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder().AddSetup(tt.ch, Spec{Resolver: tt.r})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuilder_IDs(t *testing.T) {
	b := NewBuilder()
	first := mustAdd(t, b, message.ChannelHTTP, Spec{Resolver: resolve.Text("a")})
	second := mustAdd(t, b, message.ChannelWSMessage, Spec{Resolver: resolve.Text("b")})
	named := mustAdd(t, b, message.ChannelHTTP, Spec{ID: "hello", Resolver: resolve.Text("c")})

	assert.Equal(t, "http#1", first)
	assert.Equal(t, "ws-message#2", second)
	assert.Equal(t, "hello", named)

	_, err := b.AddSetup(message.ChannelHTTP, Spec{ID: "hello", Resolver: resolve.Text("d")})
	assert.ErrorIs(t, err, ErrDuplicateID)

	regs := mustBuild(t, b)
	setups := regs.Get(message.ChannelHTTP).Setups()
	require.Len(t, setups, 2)
	assert.Less(t, setups[0].Seq, setups[1].Seq, "sequence numbers strictly increase")
	assert.Equal(t, 3, regs.Len())
}

func TestDispatch_Concurrent(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, message.ChannelHTTP, Spec{Predicate: bodyIs("a"), Resolver: resolve.Text("A")})
	mustAdd(t, b, message.ChannelHTTP, Spec{Resolver: resolve.Text("other")})
	d := NewDispatcher(mustBuild(t, b))

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in, want := "a", "A"
			if i%2 == 1 {
				in, want = "b", "other"
			}
			sc := d.Dispatch(context.Background(), message.ChannelHTTP, post(in), "")
			if got := body(sc); got != want {
				t.Errorf("Dispatch(%q) = %q, want %q", in, got, want)
			}
		}(i)
	}
	wg.Wait()
}
