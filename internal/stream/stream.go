package stream

import (
	"context"
	"sync"
	"time"
)

// OrderEvent describes an order lifecycle change pushed to dashboard
// subscribers.
type OrderEvent struct {
	Kind       string    `json:"kind"` // order.created, order.status
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"user"`
	TotalPrice int64     `json:"totalPrice"`
	Status     int       `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stream fan-outs order events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan OrderEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan OrderEvent)}
}

// Subscribe registers a subscriber and returns a channel which will
// receive events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan OrderEvent {
	ch := make(chan OrderEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt OrderEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when a subscriber is slow to avoid blocking.
		}
	}
}
