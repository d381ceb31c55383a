package library

import (
	"log/slog"
	"sync"

	"github.com/mmcdole/wora/internal/domain"
)

const subscriberBuffer = 16

// Hub fans events out to subscribers without blocking the publisher.
// A subscriber that falls behind misses events rather than stalling others.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan domain.Event
	nextID int
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[int]chan domain.Event), logger: logger}
}

// Subscribe registers a listener. The returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe() (<-chan domain.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan domain.Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(ev domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("dropping event for slow subscriber", "event", ev.Kind, "subscriber", id)
		}
	}
}
