package rfid

import (
	"sync"
	"sync/atomic"
)

// Hub fans tag reads out to subscribers.
// A subscriber whose buffer is full misses that read; the device is never blocked.
type Hub struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	closed  bool
	dropped atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscription receives reads on C until Remove is called.
type Subscription struct {
	C <-chan TagPayload

	ch   chan TagPayload
	hub  *Hub
	once sync.Once
}

// Subscribe registers a new subscriber.
// Subscribing to a closed hub returns an already closed subscription.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan TagPayload, buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(ch) })
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish delivers p to every subscriber without blocking.
func (h *Hub) Publish(p TagPayload) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- p:
		default:
			h.dropped.Add(1)
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because of full buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close removes every subscriber and closes their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.closed = true
	h.mu.Unlock()

	for sub := range subs {
		sub.once.Do(func() { close(sub.ch) })
	}
}

// Remove unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Remove() {
	if s.hub != nil {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
	}
	s.once.Do(func() { close(s.ch) })
}
