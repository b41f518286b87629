package setup

import (
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/predicate"
	"github.com/getmockd/mocket/pkg/resolve"
)

// Setup is a registered rule. A nil Predicate makes it a catch-all.
type Setup struct {
	ID        string
	Predicate predicate.Predicate
	Resolver  resolve.Resolver
	Seq       int
}

// IsCatchAll reports whether the setup has no predicate.
func (s Setup) IsCatchAll() bool {
	return s.Predicate == nil
}

// Registry holds the setups of one channel.
type Registry struct {
	channel  message.Channel
	setups   []Setup
	specific []Setup
	catchAll *Setup
}

func newRegistry(ch message.Channel) *Registry {
	return &Registry{channel: ch}
}

func (r *Registry) add(s Setup) {
	r.setups = append(r.setups, s)
}

// freeze precomputes the dispatch order.
func (r *Registry) freeze() {
	r.specific = make([]Setup, 0, len(r.setups))
	for i := len(r.setups) - 1; i >= 0; i-- {
		s := r.setups[i]
		if s.IsCatchAll() {
			if r.catchAll == nil {
				r.catchAll = &r.setups[i]
			}
			continue
		}
		r.specific = append(r.specific, s)
	}
}

// Channel returns the registry's channel.
func (r *Registry) Channel() message.Channel {
	return r.channel
}

// Len returns the number of setups.
func (r *Registry) Len() int {
	return len(r.setups)
}

// Setups returns the setups in registration order.
func (r *Registry) Setups() []Setup {
	out := make([]Setup, len(r.setups))
	copy(out, r.setups)
	return out
}

// Match returns the setup that handles msg.
func (r *Registry) Match(eval *predicate.Evaluator, msg message.Message) (Setup, bool) {
	for _, s := range r.specific {
		if eval.Evaluate(s.Predicate, msg) {
			return s, true
		}
	}
	if r.catchAll != nil {
		return *r.catchAll, true
	}
	return Setup{}, false
}

// Registries is the frozen dispatch table.
type Registries struct {
	byChannel map[message.Channel]*Registry
}

// Get returns the registry for ch, or nil for an unknown channel.
func (rs *Registries) Get(ch message.Channel) *Registry {
	if rs == nil {
		return nil
	}
	return rs.byChannel[ch]
}

// Len returns the total number of setups across channels.
func (rs *Registries) Len() int {
	n := 0
	for _, r := range rs.byChannel {
		n += r.Len()
	}
	return n
}
