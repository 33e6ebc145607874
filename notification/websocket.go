package notification

import (
	"context"
	"sync"
)

// Message is the payload pushed to websocket subscribers
type Message struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Subject  string   `json:"subject,omitempty"`
	Body     string   `json:"body"`
}

// Broadcaster pushes a rendered message to the connections of a user
type Broadcaster interface {
	Broadcast(ctx context.Context, userID string, msg Message) error
}

// Hub is an in-process Broadcaster. Connections subscribe per user id and
// receive messages on a buffered channel; slow subscribers drop messages.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Message]struct{}
	buffer int
}

// NewHub creates a Hub whose subscriber channels hold buffer messages
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 8
	}
	return &Hub{
		subs:   make(map[string]map[chan Message]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a receiver for userID. Call the returned func to unsubscribe.
func (h *Hub) Subscribe(userID string) (<-chan Message, func()) {
	ch := make(chan Message, h.buffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Message]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast delivers msg to every subscriber of userID
func (h *Hub) Broadcast(ctx context.Context, userID string, msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[userID] {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of receivers registered for userID
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
