// Package tracker implements the ChangeTracker: the single graph.Sink a
// NodeStore is wired to, which fans every dispatched event out, in
// registration order, to whichever read-only mirrors (index manager,
// rollup cache, subscriptions) care about it (spec §4.5).
package tracker

import (
	"sync"

	"github.com/Aetherall/neograph-sub001/pkg/graph"
)

// Listener receives every event a ChangeTracker dispatches. index.Manager
// and rollup.Cache both implement this with the same signature, without
// either importing tracker.
type Listener interface {
	HandleEvent(graph.Event)
}

// ChangeTracker is the production graph.Sink. It holds listeners in
// registration order and calls each synchronously, on the mutating
// goroutine, before Dispatch returns — the mechanism behind spec §4.5's
// "a single store mutation is dispatched atomically" guarantee: nothing
// downstream can observe a mutation as partially applied, because no
// listener runs until the NodeStore has already committed the change.
type ChangeTracker struct {
	mu        sync.Mutex
	listeners []Listener
}

// New returns an empty ChangeTracker.
func New() *ChangeTracker {
	return &ChangeTracker{}
}

// Register appends l to the fan-out list. Registration order is dispatch
// order, so callers that need index/rollup state fresh before their own
// handler runs (e.g. a subscription reading a rollup-backed sort key)
// must register after the components they depend on.
func (t *ChangeTracker) Register(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Unregister removes l from the fan-out list, if present. Used when a
// subscription's owning View is torn down (spec §6 "view.deinit()") so a
// dead subscription stops receiving events.
func (t *ChangeTracker) Unregister(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cur := range t.listeners {
		if cur == l {
			t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
			return
		}
	}
}

// Dispatch implements graph.Sink.
func (t *ChangeTracker) Dispatch(e graph.Event) {
	t.mu.Lock()
	listeners := t.listeners
	t.mu.Unlock()
	for _, l := range listeners {
		l.HandleEvent(e)
	}
}
