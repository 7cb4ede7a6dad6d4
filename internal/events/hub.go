// Package events fans allocation events out to websocket subscribers.
package events

import (
	"log/slog"
	"sync"

	"github.com/hostelops/bunkhouse/internal/domain"
)

const subscriberBuffer = 16

// Hub implements domain.EventPublisher and fans events out to any number of
// subscribers. Publish never blocks the allocation path: a subscriber that
// cannot keep up drops events.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan domain.OccupancyEvent]struct{}
	logger      *slog.Logger
}

// NewHub creates an empty event hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: map[chan domain.OccupancyEvent]struct{}{},
		logger:      logger,
	}
}

// Subscribe registers a new subscriber and returns its channel plus a cancel
// function that must be called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan domain.OccupancyEvent, func()) {
	ch := make(chan domain.OccupancyEvent, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber, dropping it for any whose
// buffer is full.
func (h *Hub) Publish(event domain.OccupancyEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Warn("subscriber lagging, event dropped",
				slog.String("type", string(event.Type)),
				slog.String("room_id", event.RoomID),
			)
		}
	}
}

// Close drops every remaining subscriber. Used on shutdown so websocket
// writers observe a closed channel and exit.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// SubscriberCount reports the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
