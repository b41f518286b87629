// Package requestlog captures exchanges for inspection and debugging.
//
// It is distinct from operational logging (log/slog): an Entry records what a
// client sent, which setup answered, and what went back or why the exchange
// failed. The Observer adapts the dispatcher's per-exchange session.Context
// into entries and hands them to a Store.
//
// # Usage
//
//	store := requestlog.NewMemoryStore(1000)
//	dispatcher := setup.NewDispatcher(regs, setup.WithObserver(requestlog.NewObserver(store)))
//	...
//	failed := true
//	for _, e := range store.List(&requestlog.Filter{HasError: &failed}) {
//	    fmt.Println(e.Path, e.Error)
//	}
package requestlog
