package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getmockd/mocket/pkg/group"
	"github.com/getmockd/mocket/pkg/logging"
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/session"
)

// Deliverer hands content to a live connection. Delivery is asynchronous and
// best effort; an error means this recipient was skipped.
type Deliverer interface {
	Deliver(id group.ConnID, c message.Content) error
}

// Env is what resolvers may act upon.
type Env struct {
	Groups    *group.State
	Deliverer Deliverer
	Logger    *slog.Logger
}

type run struct {
	ctx   context.Context
	sc    *session.Context
	env   Env
	log   *slog.Logger
	order ContentOrder
	body  bool
	pong  bool
}

// Resolve evaluates r for the exchange described by sc. Results are written to
// sc.Content; a failure is recorded with sc.Fail and leaves sc.Content nil.
func Resolve(ctx context.Context, r Resolver, sc *session.Context, env Env) {
	log := env.Logger
	if log == nil {
		log = logging.Nop()
	}
	st := &run{ctx: ctx, sc: sc, env: env, log: log}
	st.resolve(r)
}

// resolve runs one resolver and reports whether the exchange may continue.
func (st *run) resolve(r Resolver) bool {
	if st.sc.Failed() {
		return false
	}

	switch r := r.(type) {
	case Literal:
		st.setBody(r.Payload)
	case Sequence:
		saved := st.order
		st.order = r.Order
		defer func() { st.order = saved }()
		for _, sub := range r.Resolvers {
			if !st.resolve(sub) {
				return false
			}
		}
	case Delegate:
		p, err := st.delegate(r)
		if err != nil {
			st.sc.Fail(session.FailureResolver, err)
			return false
		}
		st.setBody(p)
	case Pong:
		if st.order == FirstWins && st.pong {
			return true
		}
		st.pong = true
		st.sc.EnsureContent().SetPong(r.Data)
	case JoinGroup:
		if err := st.join(r.Group); err != nil {
			st.sc.Fail(session.FailureResolver, err)
			return false
		}
	case Broadcast:
		if err := st.broadcast(r); err != nil {
			st.sc.Fail(session.FailureResolver, err)
			return false
		}
	case Status:
		st.sc.EnsureContent().Status = r.Code
	case Header:
		st.sc.EnsureContent().AddHeader(r.Name, r.Value)
	case Cookie:
		c, err := st.cookie(r)
		if err != nil {
			st.sc.Fail(session.FailureResolver, err)
			return false
		}
		st.sc.EnsureContent().AddCookie(c)
	default:
		st.sc.Fail(session.FailureResolver, fmt.Errorf("%w: %T", ErrUnknownResolver, r))
		return false
	}
	return true
}

func (st *run) setBody(p message.Payload) {
	if st.order == FirstWins && st.body {
		return
	}
	st.body = true
	st.sc.EnsureContent().SetBody(p)
}

func (st *run) delegate(d Delegate) (p message.Payload, err error) {
	if d.Handler == nil {
		return message.Payload{}, ErrNoHandler
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delegate panicked: %v", r)
		}
	}()
	return d.Handler.Handle(st.ctx, st.sc.Message)
}

func (st *run) join(name string) error {
	if st.env.Groups == nil {
		return ErrNoGroupState
	}
	if st.sc.ConnectionID == "" {
		return ErrNoConnection
	}
	if err := st.env.Groups.Join(st.sc.ConnectionID, name); err != nil {
		return fmt.Errorf("join group %q: %w", name, err)
	}
	st.log.Debug("joined group", "conn", st.sc.ConnectionID, "group", name)
	return nil
}

func (st *run) broadcast(b Broadcast) error {
	if st.env.Groups == nil {
		return ErrNoGroupState
	}
	if st.env.Deliverer == nil {
		return nil
	}

	var recipients []group.ConnID
	if b.Group == "" {
		recipients = st.env.Groups.AllLive()
	} else {
		recipients = st.env.Groups.MembersOf(b.Group)
	}

	content := message.NewContent(b.Payload)
	for _, id := range recipients {
		if err := st.env.Deliverer.Deliver(id, content); err != nil {
			st.log.Debug("broadcast delivery dropped", "conn", id, "group", b.Group, "error", err)
		}
	}
	return nil
}

func (st *run) cookie(c Cookie) (out *http.Cookie, err error) {
	out = &http.Cookie{Name: c.Name, Value: c.Value}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("cookie attribute panicked: %v", r)
		}
	}()
	for _, attr := range c.Attributes {
		if attr != nil {
			attr.Visit(out)
		}
	}
	return out, nil
}
