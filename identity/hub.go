package identity

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Hub is a callback list with synchronous dispatch. Providers embed one to
// implement OnAuthStateChange.
//
// Publish snapshots the callback list under the lock and calls the callbacks
// without holding it, so a callback may unsubscribe itself. A callback removed
// while a Publish is in flight is skipped if it has not been reached yet.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscription
}

type subscription struct {
	fn      func(Event)
	removed atomic.Bool
}

// Subscribe registers fn and returns its unsubscribe function. The returned
// function is idempotent.
func (h *Hub) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[uint64]*subscription)
	}
	h.nextID++
	id := h.nextID
	sub := &subscription{fn: fn}
	h.subs[id] = sub
	h.mu.Unlock()

	return func() {
		sub.removed.Store(true)
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Publish delivers event to every registered callback in registration order.
// Each callback receives its own copy of the session.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	ids := make([]uint64, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subs := make([]*subscription, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, h.subs[id])
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if sub.removed.Load() {
			continue
		}
		sub.fn(Event{Kind: event.Kind, Session: event.Session.Clone()})
	}
}

// Len returns the number of registered callbacks.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
