// Package monitor watches every known session for protocol messages and
// streams newly observed ones to subscribers. It is a read-only observer of
// the channel: it never injects keystrokes.
package monitor

import (
	"sync"
	"time"

	"crosstalk/internal/protocol"
)

// Event is one newly observed protocol message.
type Event struct {
	Session    string
	Message    protocol.Message
	Raw        string
	ObservedAt time.Time
}

const defaultSubscriberBuffer = 64

// Hub fans events out to subscribers. Delivery is best-effort: a subscriber
// that stops draining loses events rather than stalling the sweep loop.
type Hub struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a cancel function. The channel
// is closed on cancel.
func (h *Hub) Subscribe(size int) (<-chan Event, func()) {
	if size <= 0 {
		size = defaultSubscriberBuffer
	}
	channel := make(chan Event, size)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = channel
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
			close(channel)
		})
	}
	return channel, cancel
}

// Broadcast delivers an event to every subscriber without blocking.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range h.subscribers {
		select {
		case channel <- event:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
