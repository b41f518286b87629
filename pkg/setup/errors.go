package setup

import "errors"

// Common errors for the setup package.
var (
	// ErrFrozen indicates the builder was already built.
	ErrFrozen = errors.New("setup builder is frozen")
	// ErrUnknownChannel indicates a channel outside the dispatch table.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrNilResolver indicates a setup without a resolver.
	ErrNilResolver = errors.New("setup has no resolver")
	// ErrDuplicateID indicates a setup id already registered.
	ErrDuplicateID = errors.New("duplicate setup id")
	// ErrResolverNotAllowed indicates a resolver that cannot run on the channel.
	ErrResolverNotAllowed = errors.New("resolver not allowed on channel")
)
