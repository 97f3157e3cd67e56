// Package emitter provides the change-notification hub shared by all
// engines. The host subscribes once per surface and re-reads engine state
// on every notification.
package emitter

import "sync"

// Hub fans change notifications out to registered listeners.
// Listeners are invoked synchronously in registration order.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[int]func())}
}

// Subscribe registers a listener and returns a function that removes it.
func (h *Hub) Subscribe(fn func()) (unsubscribe func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Notify invokes every registered listener. Listeners run outside the
// Hub's lock so they may subscribe or unsubscribe reentrantly.
func (h *Hub) Notify() {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.subs))
	for i := 0; i < h.next; i++ {
		if fn, ok := h.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
