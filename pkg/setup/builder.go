package setup

import (
	"fmt"
	"sync"

	"github.com/getmockd/mocket/internal/id"
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/predicate"
	"github.com/getmockd/mocket/pkg/resolve"
)

// Spec describes a setup to register. An empty ID is generated from the
// channel and sequence number.
type Spec struct {
	ID        string
	Predicate predicate.Predicate
	Resolver  resolve.Resolver
}

// Builder accumulates setups until Build.
type Builder struct {
	regs   map[message.Channel]*Registry
	ids    map[string]struct{}
	seq    int
	frozen bool

	mu sync.Mutex
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	b := &Builder{
		regs: make(map[message.Channel]*Registry, len(message.Channels)),
		ids:  make(map[string]struct{}),
	}
	for _, ch := range message.Channels {
		b.regs[ch] = newRegistry(ch)
	}
	return b
}

// AddSetup appends a setup to the channel's registry and returns its id.
func (b *Builder) AddSetup(ch message.Channel, s Spec) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		return "", ErrFrozen
	}
	reg, ok := b.regs[ch]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}
	if s.Resolver == nil {
		return "", ErrNilResolver
	}
	if err := checkResolver(ch, s.Resolver); err != nil {
		return "", err
	}

	b.seq++
	setupID := s.ID
	if setupID == "" {
		setupID = id.Setup(string(ch), b.seq)
	}
	if _, dup := b.ids[setupID]; dup {
		b.seq--
		return "", fmt.Errorf("%w: %q", ErrDuplicateID, setupID)
	}
	b.ids[setupID] = struct{}{}

	reg.add(Setup{ID: setupID, Predicate: s.Predicate, Resolver: s.Resolver, Seq: b.seq})
	return setupID, nil
}

// SetConnectHandler registers the resolver run once per WebSocket connection
// right after the handshake. The most recent call wins.
func (b *Builder) SetConnectHandler(r resolve.Resolver) (string, error) {
	return b.AddSetup(message.ChannelWSConnect, Spec{Resolver: r})
}

// Build freezes the builder and returns the read-only dispatch table.
func (b *Builder) Build() (*Registries, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		return nil, ErrFrozen
	}
	b.frozen = true

	regs := &Registries{byChannel: b.regs}
	for _, r := range regs.byChannel {
		r.freeze()
	}
	return regs, nil
}

// checkResolver rejects resolvers that cannot run on ch.
func checkResolver(ch message.Channel, r resolve.Resolver) error {
	notAllowed := func() error {
		return fmt.Errorf("%w: %T on %s", ErrResolverNotAllowed, r, ch)
	}

	switch r := r.(type) {
	case resolve.Sequence:
		for _, sub := range r.Resolvers {
			if sub == nil {
				return ErrNilResolver
			}
			if err := checkResolver(ch, sub); err != nil {
				return err
			}
		}
	case resolve.JoinGroup, resolve.Broadcast:
		if !ch.IsWebSocket() {
			return notAllowed()
		}
	case resolve.Pong:
		if ch != message.ChannelWSPing {
			return notAllowed()
		}
	case resolve.Status, resolve.Header, resolve.Cookie:
		if ch != message.ChannelHTTP {
			return notAllowed()
		}
	}
	return nil
}
