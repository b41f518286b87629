package setup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getmockd/mocket/internal/id"
	"github.com/getmockd/mocket/pkg/group"
	"github.com/getmockd/mocket/pkg/logging"
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/predicate"
	"github.com/getmockd/mocket/pkg/resolve"
	"github.com/getmockd/mocket/pkg/session"
)

// Dispatcher matches inbound messages against frozen registries and resolves
// them.
type Dispatcher struct {
	regs      *Registries
	groups    *group.State
	deliverer resolve.Deliverer
	observer  session.Observer
	eval      *predicate.Evaluator
	log       *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithGroups sets the connection/group state. Defaults to an empty State.
func WithGroups(s *group.State) Option {
	return func(d *Dispatcher) { d.groups = s }
}

// WithDeliverer sets the transport used by Broadcast.
func WithDeliverer(del resolve.Deliverer) Option {
	return func(d *Dispatcher) { d.deliverer = del }
}

// WithObserver sets the observer notified once per exchange.
func WithObserver(o session.Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// NewDispatcher returns a Dispatcher over regs.
func NewDispatcher(regs *Registries, opts ...Option) *Dispatcher {
	d := &Dispatcher{regs: regs}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logging.Nop()
	}
	if d.groups == nil {
		d.groups = group.NewState()
	}
	d.eval = predicate.NewEvaluator(d.log)
	return d
}

// Groups returns the connection/group state.
func (d *Dispatcher) Groups() *group.State {
	return d.groups
}

// Registries returns the dispatch table.
func (d *Dispatcher) Registries() *Registries {
	return d.regs
}

// Dispatch handles msg on channel ch for connection conn (empty for HTTP). The
// returned context carries the content to send, or a failure. The observer has
// already seen a copy of it when Dispatch returns.
func (d *Dispatcher) Dispatch(ctx context.Context, ch message.Channel, msg message.Message, conn group.ConnID) *session.Context {
	sc := session.New(id.Session(), ch, msg, conn)

	reg := d.regs.Get(ch)
	var (
		s       Setup
		matched bool
	)
	if reg != nil {
		s, matched = reg.Match(d.eval, msg)
	}

	if matched {
		sc.SetupID = s.ID
		resolve.Resolve(ctx, s.Resolver, sc, resolve.Env{
			Groups:    d.groups,
			Deliverer: d.deliverer,
			Logger:    d.log,
		})
		if ch == message.ChannelWSPing {
			settlePong(sc)
		}
	} else {
		applyDefault(sc)
	}

	if sc.Failed() {
		d.log.Warn("exchange failed",
			"channel", ch,
			"setup", sc.SetupID,
			"kind", sc.Failure.Kind,
			"errorType", sc.Failure.ErrorType,
			"error", sc.Failure.Message,
		)
	} else {
		d.log.Debug("exchange resolved", "channel", ch, "setup", sc.SetupID, "matched", sc.Matched())
	}

	sc.Finish()
	d.notify(sc)
	return sc
}

// Connect runs the connect handler for a freshly registered connection.
func (d *Dispatcher) Connect(ctx context.Context, conn group.ConnID) *session.Context {
	return d.Dispatch(ctx, message.ChannelWSConnect, message.ConnectFrame(), conn)
}

func (d *Dispatcher) notify(sc *session.Context) {
	if d.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("observer panicked", "panic", fmt.Sprint(r), "session", sc.ID)
		}
	}()
	d.observer.Observe(sc.Clone())
}

func applyDefault(sc *session.Context) {
	switch sc.Channel {
	case message.ChannelHTTP:
		sc.EnsureContent().Status = http.StatusNotFound
	case message.ChannelWSPing:
		sc.EnsureContent().SetPong(pingPayload(sc))
	}
}

// settlePong picks the pong of a matched ping: an explicit pong, else the
// body, else the ping payload echoed back. Failed pings get no pong.
func settlePong(sc *session.Context) {
	if sc.Failed() {
		return
	}
	c := sc.EnsureContent()
	switch {
	case c.HasPong():
	case c.HasBody():
		c.SetPong(c.Body)
		c.ClearBody()
	default:
		c.SetPong(pingPayload(sc))
	}
}

func pingPayload(sc *session.Context) []byte {
	if f, ok := sc.Message.(*message.Frame); ok {
		return f.Payload
	}
	return nil
}
