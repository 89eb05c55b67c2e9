package gateway

import (
	"sync"

	"github.com/aouyang1/tvsettings/settings"
)

// Hub fans each saved settings record out to subscribed callbacks. It is the
// in-process end of the change-notification channel consumed by playback
// clients over the WebSocket edge.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(*settings.Record)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(*settings.Record))}
}

// Subscribe registers a callback for future record changes and returns an
// unsubscribe func.
func (h *Hub) Subscribe(fn func(*settings.Record)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Broadcast delivers the record to every subscriber. Each callback receives
// its own clone so no subscriber can mutate another's view.
func (h *Hub) Broadcast(r *settings.Record) {
	h.mu.Lock()
	fns := make([]func(*settings.Record), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(r.Clone())
	}
}
