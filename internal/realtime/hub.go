package realtime

import (
	"context"
	"sync"
)

// Hub is an in-process broker. It serves as both Feed and Publisher for a
// single server process or for tests.
type Hub struct {
	mu     sync.Mutex
	subs   map[*hubSubscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*hubSubscription]struct{})}
}

func (h *Hub) Subscribe(ctx context.Context) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &hubSubscription{
		hub:  h,
		ch:   make(chan Change, subscriptionBuffer),
		stop: make(chan struct{}),
	}
	if h.closed {
		s.closeLocked()
		return s, nil
	}
	h.subs[s] = struct{}{}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = s.Close()
			case <-s.stop:
			}
		}()
	}
	return s, nil
}

// Publish never blocks. A subscriber whose buffer is full has its oldest
// pending change replaced by a resync marker.
func (h *Hub) Publish(_ context.Context, c Change) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		select {
		case s.ch <- c:
		default:
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- Resync():
			default:
			}
		}
	}
	return nil
}

// Subscribers reports the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every open subscription. Later subscriptions start closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		s.closeLocked()
	}
}

type hubSubscription struct {
	hub  *Hub
	ch   chan Change
	once sync.Once
	stop chan struct{}
}

func (s *hubSubscription) Changes() <-chan Change {
	return s.ch
}

func (s *hubSubscription) Close() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.closeLocked()
	return nil
}

func (s *hubSubscription) closeLocked() {
	s.once.Do(func() {
		delete(s.hub.subs, s)
		close(s.ch)
		close(s.stop)
	})
}
